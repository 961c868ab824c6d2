package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	stores := map[string]FlagStore{
		"backend": NewBackendFlagStore(storage.NewMemoryStore()),
		"redis":   NewRedisFlagStore(client),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			verified, err := s.Verified(ctx)
			require.NoError(t, err)
			assert.False(t, verified)

			require.NoError(t, s.SetVerified(ctx))
			verified, err = s.Verified(ctx)
			require.NoError(t, err)
			assert.True(t, verified)

			require.NoError(t, s.ClearVerified(ctx))
			verified, err = s.Verified(ctx)
			require.NoError(t, err)
			assert.False(t, verified)

			_, err = s.Artifact(ctx)
			assert.ErrorIs(t, err, ErrNoStoredKey)
			require.NoError(t, s.PutArtifact(ctx, []byte(`{"keyId":"x"}`)))
			raw, err := s.Artifact(ctx)
			require.NoError(t, err)
			assert.Equal(t, `{"keyId":"x"}`, string(raw))
			require.NoError(t, s.ClearArtifact(ctx))
			_, err = s.Artifact(ctx)
			assert.ErrorIs(t, err, ErrNoStoredKey)

			forced, err := s.TakeForce(ctx)
			require.NoError(t, err)
			assert.False(t, forced)
			require.NoError(t, s.SetForce(ctx))
			forced, err = s.TakeForce(ctx)
			require.NoError(t, err)
			assert.True(t, forced)
			forced, err = s.TakeForce(ctx)
			require.NoError(t, err)
			assert.False(t, forced)
		})
	}
}
