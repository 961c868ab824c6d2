package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	user  string
	event websocket.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(user string, ev websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{user: user, event: ev})
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event.Type
	}
	return out
}

type testEnv struct {
	store      *storage.MemoryStore
	chain      *storage.Chain
	flags      session.FlagStore
	manager    *session.Manager
	privateKey ed25519.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	chain := storage.NewChain(store)
	flags := session.NewBackendFlagStore(chain)
	manager := session.NewManager(func(string) *dataset.Workspace {
		return dataset.NewWorkspace(chain, dataset.Options{})
	}, session.NewKeyVerifier(pub), flags)
	t.Cleanup(manager.Close)

	return &testEnv{store: store, chain: chain, flags: flags, manager: manager, privateKey: priv}
}

// loggedIn 비밀번호 확인 없이 바로 인증된 세션
func (e *testEnv) loggedIn(t *testing.T, user string) *session.Session {
	t.Helper()
	s := e.manager.Create()
	require.NoError(t, s.Gate.BeginLogin())
	state, err := s.Gate.CompleteLogin(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, session.StateAuthenticated, state)
	require.NoError(t, s.Sync(context.Background()))
	return s
}

func (e *testEnv) securityKey(t *testing.T) []byte {
	t.Helper()
	key := model.SecurityKey{
		KeyID:      "CMS-ADMIN-2025-UNIVERSAL",
		IssuedTo:   "관리자",
		IssuedDate: "2025-01-02",
	}
	require.NoError(t, session.SignSecurityKey(e.privateKey, &key))
	raw, err := json.Marshal(key)
	require.NoError(t, err)
	return raw
}

func intPtr(v int) *int { return &v }
