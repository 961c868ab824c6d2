package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

// ErrPersisterClosed is returned by Flush after Close.
var ErrPersisterClosed = errors.New("persister closed")

const defaultWriteTimeout = 30 * time.Second

// Writer is the write side of the storage chain.
type Writer interface {
	Store(ctx context.Context, key string, value []byte) error
}

// job 저장 작업 하나. barrier 가 있으면 Flush 대기용 표시 작업이다.
type job struct {
	user      string
	dataset   namespace.Dataset
	key       string
	markerKey string
	value     []byte
	barrier   chan struct{}
}

// Persister applies dataset writes in FIFO order on one goroutine, so the
// caller never waits for storage and later writes never overtake earlier ones.
type Persister struct {
	store        Writer
	writeTimeout time.Duration
	onPersisted  func(user string, ds namespace.Dataset)

	mu     sync.Mutex
	queue  []job
	closed bool
	notify chan struct{}
	done   chan struct{}
}

func NewPersister(store Writer) *Persister {
	p := &Persister{
		store:        store,
		writeTimeout: defaultWriteTimeout,
		notify:       make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	go p.run()
	return p
}

// OnPersisted registers a callback run after each dataset write completes.
func (p *Persister) OnPersisted(fn func(user string, ds namespace.Dataset)) {
	p.mu.Lock()
	p.onPersisted = fn
	p.mu.Unlock()
}

func (p *Persister) enqueue(j job) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, j)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return true
}

// Enqueue schedules value (and the saved marker) to be written under key.
func (p *Persister) Enqueue(user string, ds namespace.Dataset, key, markerKey string, value []byte) {
	if !p.enqueue(job{user: user, dataset: ds, key: key, markerKey: markerKey, value: value}) {
		logger.Warn("Persister closed, dropping write", map[string]interface{}{
			"user":    user,
			"dataset": string(ds),
		})
	}
}

// Flush blocks until every write enqueued before the call has been applied.
func (p *Persister) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !p.enqueue(job{barrier: barrier}) {
		return ErrPersisterClosed
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	<-p.done
}

func (p *Persister) next() (job, bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return job{}, false, p.closed
	}
	j := p.queue[0]
	p.queue[0] = job{}
	p.queue = p.queue[1:]
	return j, true, false
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		j, ok, closed := p.next()
		if closed {
			return
		}
		if !ok {
			<-p.notify
			continue
		}
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		p.write(j)
	}
}

func (p *Persister) write(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	// 각 백엔드 실패는 체인에서 이미 기록하므로 여기서는 요약만 남긴다
	if err := p.store.Store(ctx, j.key, j.value); err != nil {
		logger.Warn("Dataset persisted with errors", map[string]interface{}{
			"user":    j.user,
			"dataset": string(j.dataset),
			"error":   err.Error(),
		})
	}
	if err := p.store.Store(ctx, j.markerKey, []byte("true")); err != nil {
		logger.Warn("Saved marker persisted with errors", map[string]interface{}{
			"user":    j.user,
			"dataset": string(j.dataset),
			"error":   err.Error(),
		})
	}

	p.mu.Lock()
	hook := p.onPersisted
	p.mu.Unlock()
	if hook != nil {
		hook(j.user, j.dataset)
	}
}
