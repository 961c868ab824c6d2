package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedisStore(client)
	assert.True(t, s.Available(ctx))

	_, err := s.Get(ctx, "USER_kim_UNITS")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "USER_kim_UNITS", []byte(`["식"]`)))
	raw, err := s.Get(ctx, "USER_kim_UNITS")
	require.NoError(t, err)
	assert.Equal(t, `["식"]`, string(raw))

	// 키 접두어 확인
	stored, err := mr.Get("geonseol:USER_kim_UNITS")
	require.NoError(t, err)
	assert.Equal(t, `["식"]`, stored)

	require.NoError(t, s.Delete(ctx, "USER_kim_UNITS"))
	_, err = s.Get(ctx, "USER_kim_UNITS")
	assert.ErrorIs(t, err, ErrNotFound)

	mr.Close()
	assert.False(t, s.Available(ctx))
}
