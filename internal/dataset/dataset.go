// Package dataset holds the in-memory state of each logical dataset for a
// signed-in user and keeps the storage backends in step with it.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

var (
	ErrNotLoaded     = errors.New("dataset not loaded")
	ErrInvalidValue  = errors.New("invalid dataset value")
	ErrUnknownTarget = errors.New("unknown dataset")
)

// Store is the storage chain as seen by a dataset.
type Store interface {
	Writer
	Load(ctx context.Context, key string, decode func([]byte) error) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Options 데이터셋 로드 정책
type Options struct {
	// LegacyEmptyBackfill replaces an empty stored sequence with a non-empty
	// default, but only for data that has no saved marker.
	LegacyEmptyBackfill bool
}

// spec 데이터셋별 기본값과 후처리 규칙
type spec[T any] struct {
	name     namespace.Dataset
	defaults func(user string) T
	// empty 는 시퀀스 데이터셋에서만 설정
	empty    func(T) bool
	backfill func(T) T
	validate func(T) error
}

// Dataset is the authoritative in-memory value of one logical dataset.
// Writes are forwarded to the persister only after a load has completed
// for the current user.
type Dataset[T any] struct {
	spec      spec[T]
	store     Store
	persister *Persister
	opts      Options
	resolver  namespace.Resolver

	mu         sync.RWMutex
	value      T
	user       string
	loaded     bool
	generation uint64
}

func newDataset[T any](s spec[T], store Store, persister *Persister, opts Options) *Dataset[T] {
	return &Dataset[T]{
		spec:      s,
		store:     store,
		persister: persister,
		opts:      opts,
		value:     s.defaults(""),
	}
}

func (d *Dataset[T]) Name() namespace.Dataset { return d.spec.name }

// Get returns the current value. Slices are shared with the dataset and
// must not be modified in place; use Update.
func (d *Dataset[T]) Get() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

// Loaded reports whether a load has completed for the current user.
func (d *Dataset[T]) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Load hydrates the dataset for user: the first backend holding a readable
// value wins; otherwise the default is used unchanged. A write that lands
// while the same user is being reloaded is kept and persisted once the
// gate opens; writes made before the load started are replaced.
func (d *Dataset[T]) Load(ctx context.Context, user string) (T, error) {
	key := d.resolver.Key(user, d.spec.name)
	def := d.spec.defaults(user)

	d.mu.RLock()
	startGen := d.generation
	d.mu.RUnlock()

	var loaded T
	source, err := d.store.Load(ctx, key, func(raw []byte) error {
		if isNull(raw) {
			return storage.ErrNotFound
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		loaded = v
		return nil
	})

	value := def
	switch {
	case err == nil:
		value = d.postProcess(ctx, user, loaded, def)
		logger.Debug("Dataset loaded", map[string]interface{}{
			"user":    user,
			"dataset": string(d.spec.name),
			"backend": source,
		})
	case errors.Is(err, storage.ErrNotFound):
		logger.Debug("Dataset not stored yet, using default", map[string]interface{}{
			"user":    user,
			"dataset": string(d.spec.name),
		})
	default:
		return def, err
	}

	d.mu.Lock()
	// 같은 사용자를 다시 불러오는 동안 들어온 변경은 로드 결과보다 나중 값이다
	raced := d.generation != startGen && d.user == user
	if raced {
		value = d.value
	} else {
		d.value = value
	}
	d.user = user
	d.loaded = true
	d.generation++
	d.mu.Unlock()

	if raced {
		logger.Warn("Dataset changed during reload, keeping newer value", map[string]interface{}{
			"user":    user,
			"dataset": string(d.spec.name),
		})
		d.persist(user, value)
	}
	return value, nil
}

func (d *Dataset[T]) postProcess(ctx context.Context, user string, v, def T) T {
	if d.spec.empty != nil && d.opts.LegacyEmptyBackfill && d.spec.empty(v) && !d.spec.empty(def) {
		if !d.hasMarker(ctx, user) {
			logger.Info("Legacy empty dataset replaced by default", map[string]interface{}{
				"user":    user,
				"dataset": string(d.spec.name),
			})
			v = def
		}
	}
	if d.spec.backfill != nil {
		v = d.spec.backfill(v)
	}
	return v
}

func (d *Dataset[T]) hasMarker(ctx context.Context, user string) bool {
	_, err := d.store.Get(ctx, d.resolver.MarkerKey(user, d.spec.name))
	return err == nil
}

// Reset closes the load gate. The value stays in memory.
func (d *Dataset[T]) Reset() {
	d.mu.Lock()
	d.loaded = false
	d.mu.Unlock()
}

// Set replaces the whole value and schedules it for persistence.
func (d *Dataset[T]) Set(v T) error {
	if d.spec.validate != nil {
		if err := d.spec.validate(v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	}

	d.mu.Lock()
	d.value = v
	d.generation++
	user, loaded := d.user, d.loaded
	d.mu.Unlock()

	if loaded {
		d.persist(user, v)
	}
	return nil
}

// Update applies fn to the current value under the dataset lock and
// persists the result. fn must not modify its argument in place.
func (d *Dataset[T]) Update(fn func(T) (T, error)) (T, error) {
	d.mu.Lock()
	next, err := fn(d.value)
	if err == nil && d.spec.validate != nil {
		if verr := d.spec.validate(next); verr != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidValue, verr)
		}
	}
	if err != nil {
		cur := d.value
		d.mu.Unlock()
		return cur, err
	}
	d.value = next
	d.generation++
	user, loaded := d.user, d.loaded
	d.mu.Unlock()

	if loaded {
		d.persist(user, next)
	}
	return next, nil
}

func (d *Dataset[T]) persist(user string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode dataset", err, map[string]interface{}{
			"user":    user,
			"dataset": string(d.spec.name),
		})
		return
	}
	d.persister.Enqueue(user, d.spec.name, d.resolver.Key(user, d.spec.name), d.resolver.MarkerKey(user, d.spec.name), raw)
}

// MarshalValue encodes the current value.
func (d *Dataset[T]) MarshalValue() ([]byte, error) {
	return json.Marshal(d.Get())
}

// decode parses raw into T and runs validation without applying it.
func (d *Dataset[T]) decode(raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrInvalidValue, d.spec.name, err)
	}
	if d.spec.validate != nil {
		if err := d.spec.validate(v); err != nil {
			return v, fmt.Errorf("%w: %s: %v", ErrInvalidValue, d.spec.name, err)
		}
	}
	return v, nil
}

// ReplaceJSON decodes raw and replaces the whole value with it.
func (d *Dataset[T]) ReplaceJSON(raw []byte) error {
	v, err := d.decode(raw)
	if err != nil {
		return err
	}
	return d.Set(v)
}

// Validate reports whether raw would be accepted by ReplaceJSON.
func (d *Dataset[T]) Validate(raw []byte) error {
	_, err := d.decode(raw)
	return err
}

func (d *Dataset[T]) load(ctx context.Context, user string) error {
	_, err := d.Load(ctx, user)
	return err
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
