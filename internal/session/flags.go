package session

import (
	"context"
	"errors"

	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/redis/go-redis/v9"
)

// 전역 플래그 이름
const (
	FlagVerified = "SECURITY_KEY_VERIFIED"
	FlagKeyData  = "VERIFIED_KEY_DATA"
	FlagForce    = "FORCE_SECURITY_AUTH"
)

// FlagStore holds the global security flags shared by every admin session.
type FlagStore interface {
	SetVerified(ctx context.Context) error
	Verified(ctx context.Context) (bool, error)
	ClearVerified(ctx context.Context) error

	PutArtifact(ctx context.Context, raw []byte) error
	// Artifact returns ErrNoStoredKey when nothing is stored.
	Artifact(ctx context.Context) ([]byte, error)
	ClearArtifact(ctx context.Context) error

	SetForce(ctx context.Context) error
	// TakeForce reports whether the force flag was set and clears it.
	TakeForce(ctx context.Context) (bool, error)
}

// BackendFlagStore keeps the flags as system keys in a storage backend.
type BackendFlagStore struct {
	backend  storage.Backend
	resolver namespace.Resolver
}

func NewBackendFlagStore(backend storage.Backend) *BackendFlagStore {
	return &BackendFlagStore{backend: backend}
}

func (s *BackendFlagStore) key(name string) string { return s.resolver.SystemKey(name) }

func (s *BackendFlagStore) isSet(ctx context.Context, name string) (bool, error) {
	raw, err := s.backend.Get(ctx, s.key(name))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

func (s *BackendFlagStore) SetVerified(ctx context.Context) error {
	return s.backend.Set(ctx, s.key(FlagVerified), []byte("true"))
}

func (s *BackendFlagStore) Verified(ctx context.Context) (bool, error) {
	return s.isSet(ctx, FlagVerified)
}

func (s *BackendFlagStore) ClearVerified(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key(FlagVerified))
}

func (s *BackendFlagStore) PutArtifact(ctx context.Context, raw []byte) error {
	return s.backend.Set(ctx, s.key(FlagKeyData), raw)
}

func (s *BackendFlagStore) Artifact(ctx context.Context) ([]byte, error) {
	raw, err := s.backend.Get(ctx, s.key(FlagKeyData))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoStoredKey
	}
	return raw, err
}

func (s *BackendFlagStore) ClearArtifact(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key(FlagKeyData))
}

func (s *BackendFlagStore) SetForce(ctx context.Context) error {
	return s.backend.Set(ctx, s.key(FlagForce), []byte("true"))
}

func (s *BackendFlagStore) TakeForce(ctx context.Context) (bool, error) {
	set, err := s.isSet(ctx, FlagForce)
	if err != nil || !set {
		return false, err
	}
	return true, s.backend.Delete(ctx, s.key(FlagForce))
}

// RedisFlagStore keeps the flags in Redis so that several server
// instances share them.
type RedisFlagStore struct {
	client redis.UniversalClient
}

func NewRedisFlagStore(client redis.UniversalClient) *RedisFlagStore {
	return &RedisFlagStore{client: client}
}

func redisFlagKey(name string) string { return "geonseol:flag:" + name }

func (s *RedisFlagStore) SetVerified(ctx context.Context) error {
	return s.client.Set(ctx, redisFlagKey(FlagVerified), "true", 0).Err()
}

func (s *RedisFlagStore) Verified(ctx context.Context) (bool, error) {
	val, err := s.client.Get(ctx, redisFlagKey(FlagVerified)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return val == "true", err
}

func (s *RedisFlagStore) ClearVerified(ctx context.Context) error {
	return s.client.Del(ctx, redisFlagKey(FlagVerified)).Err()
}

func (s *RedisFlagStore) PutArtifact(ctx context.Context, raw []byte) error {
	return s.client.Set(ctx, redisFlagKey(FlagKeyData), raw, 0).Err()
}

func (s *RedisFlagStore) Artifact(ctx context.Context) ([]byte, error) {
	raw, err := s.client.Get(ctx, redisFlagKey(FlagKeyData)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoStoredKey
	}
	return raw, err
}

func (s *RedisFlagStore) ClearArtifact(ctx context.Context) error {
	return s.client.Del(ctx, redisFlagKey(FlagKeyData)).Err()
}

func (s *RedisFlagStore) SetForce(ctx context.Context) error {
	return s.client.Set(ctx, redisFlagKey(FlagForce), "true", 0).Err()
}

func (s *RedisFlagStore) TakeForce(ctx context.Context) (bool, error) {
	val, err := s.client.GetDel(ctx, redisFlagKey(FlagForce)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return val == "true", err
}
