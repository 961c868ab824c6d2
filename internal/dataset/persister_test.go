package dataset

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes []string
	delay  time.Duration
}

func (r *recordingWriter) Store(ctx context.Context, key string, value []byte) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.writes = append(r.writes, key+"="+string(value))
	r.mu.Unlock()
	return nil
}

func TestPersister_FIFO(t *testing.T) {
	w := &recordingWriter{delay: time.Millisecond}
	p := NewPersister(w)
	defer p.Close()

	for _, v := range []string{"1", "2", "3"} {
		p.Enqueue("kim", namespace.Units, "k", "k@saved", []byte(v))
	}
	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, []string{"k=1", "k@saved=true", "k=2", "k@saved=true", "k=3", "k@saved=true"}, w.writes)
}

func TestPersister_FlushHonorsContext(t *testing.T) {
	w := &recordingWriter{delay: 200 * time.Millisecond}
	p := NewPersister(w)
	defer p.Close()

	p.Enqueue("kim", namespace.Units, "k", "k@saved", []byte("1"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Flush(ctx), context.DeadlineExceeded)
}

func TestPersister_CloseDrains(t *testing.T) {
	w := &recordingWriter{}
	p := NewPersister(w)

	p.Enqueue("kim", namespace.Units, "k", "k@saved", []byte("1"))
	p.Close()
	p.Close()

	assert.Len(t, w.writes, 2)
	assert.ErrorIs(t, p.Flush(context.Background()), ErrPersisterClosed)

	// 종료 후 요청은 버려진다
	p.Enqueue("kim", namespace.Units, "k", "k@saved", []byte("2"))
	assert.Len(t, w.writes, 2)
}
