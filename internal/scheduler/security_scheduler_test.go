package scheduler

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (r *recorder) Publish(user string, ev websocket.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type fixture struct {
	manager *session.Manager
	flags   session.FlagStore
	events  *recorder
	sched   *SecurityScheduler
	key     []byte
}

func newFixture(t *testing.T, maxIdle time.Duration) *fixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	chain := storage.NewChain(storage.NewMemoryStore())
	flags := session.NewBackendFlagStore(chain)
	manager := session.NewManager(func(string) *dataset.Workspace {
		return dataset.NewWorkspace(chain, dataset.Options{})
	}, session.NewKeyVerifier(pub), flags)
	t.Cleanup(manager.Close)

	key := model.SecurityKey{KeyID: "CMS-ADMIN-2025-UNIVERSAL", IssuedTo: "관리자", IssuedDate: "2025-01-02"}
	require.NoError(t, session.SignSecurityKey(priv, &key))
	raw, err := json.Marshal(key)
	require.NoError(t, err)

	events := &recorder{}
	authService := service.NewAuthService(nil, manager, events, "scheduler-secret", time.Hour)
	return &fixture{
		manager: manager,
		flags:   flags,
		events:  events,
		sched:   NewSecurityScheduler(manager, authService, "@every 1h", maxIdle),
		key:     raw,
	}
}

func (f *fixture) login(t *testing.T, user string) *session.Session {
	t.Helper()
	ctx := context.Background()
	s := f.manager.Create()
	require.NoError(t, s.Gate.BeginLogin())
	state, err := s.Gate.CompleteLogin(ctx, user)
	require.NoError(t, err)
	if state == session.StateSecurityPending {
		_, err = s.Gate.SubmitSecurityKey(ctx, f.key)
		require.NoError(t, err)
	}
	require.NoError(t, s.Sync(ctx))
	return s
}

func TestSecurityScheduler_RevalidateAdmins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	admin := f.login(t, model.AdminUsername)
	user := f.login(t, "kim")

	assert.Equal(t, 0, f.sched.RevalidateAdmins(ctx))
	assert.Equal(t, session.StateAuthenticated, admin.Gate.State())

	// 다른 곳에서 전체 로그아웃하여 검증 플래그가 사라진 경우
	require.NoError(t, f.flags.ClearVerified(ctx))

	assert.Equal(t, 1, f.sched.RevalidateAdmins(ctx))
	assert.Equal(t, session.StateSecurityPending, admin.Gate.State())
	assert.False(t, admin.Workspace.Loaded())
	assert.Equal(t, session.StateAuthenticated, user.Gate.State())

	f.events.mu.Lock()
	require.Len(t, f.events.events, 1)
	assert.Equal(t, websocket.EventSessionReload, f.events.events[0].Type)
	f.events.mu.Unlock()

	// 이미 보류 상태인 세션은 대상이 아님
	assert.Equal(t, 0, f.sched.RevalidateAdmins(ctx))
}

func TestSecurityScheduler_ExpireIdle(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	stale := f.login(t, "kim")
	time.Sleep(100 * time.Millisecond)
	fresh := f.login(t, "lee")

	assert.Equal(t, 1, f.sched.ExpireIdle())

	_, err := f.manager.Get(stale.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = f.manager.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSecurityScheduler_StartStop(t *testing.T) {
	f := newFixture(t, time.Hour)
	require.NoError(t, f.sched.Start())
	f.sched.Stop()

	bad := NewSecurityScheduler(f.manager, nil, "not a spec", 0)
	assert.Error(t, bad.Start())
}
