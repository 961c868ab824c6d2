package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

// State 세션 게이트 상태
type State string

const (
	StateNoSession       State = "NoSession"
	StateAuthenticating  State = "Authenticating"
	StateSecurityPending State = "SecurityPending"
	StateAuthenticated   State = "Authenticated"
)

// Gate is the identity state machine of one session:
// NoSession -> Authenticating -> (SecurityPending) -> Authenticated.
type Gate struct {
	verifier *KeyVerifier
	flags    FlagStore

	mu    sync.RWMutex
	state State
	user  string
}

func NewGate(verifier *KeyVerifier, flags FlagStore) *Gate {
	return &Gate{verifier: verifier, flags: flags, state: StateNoSession}
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// User returns the current user, or "" when no user is authenticated.
func (g *Gate) User() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != StateAuthenticated {
		return ""
	}
	return g.user
}

func (g *Gate) transition(from []State, to State) error {
	for _, s := range from {
		if g.state == s {
			g.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, g.state, to)
}

// BeginLogin starts a password login.
func (g *Gate) BeginLogin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transition([]State{StateNoSession, StateAuthenticating}, StateAuthenticating)
}

// AbortLogin returns to NoSession after a failed credential check.
func (g *Gate) AbortLogin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateAuthenticating {
		g.state = StateNoSession
	}
}

// CompleteLogin finishes a password login for user. The admin account is
// held in SecurityPending unless a stored key still verifies and no forced
// re-authentication is pending.
func (g *Gate) CompleteLogin(ctx context.Context, user string) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAuthenticating {
		return g.state, fmt.Errorf("%w: %s -> login", ErrInvalidTransition, g.state)
	}
	g.user = user

	if user != model.AdminUsername {
		g.state = StateAuthenticated
		return g.state, nil
	}

	forced, err := g.flags.TakeForce(ctx)
	if err != nil {
		logger.Warn("Failed to read force flag", map[string]interface{}{"error": err.Error()})
	}
	if !forced && g.storedKeyValid(ctx) == nil {
		g.state = StateAuthenticated
		return g.state, nil
	}

	g.state = StateSecurityPending
	return g.state, nil
}

// BeginSecurityKey starts the admin key-first flow from NoSession.
func (g *Gate) BeginSecurityKey() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.transition([]State{StateNoSession, StateSecurityPending}, StateSecurityPending); err != nil {
		return err
	}
	g.user = model.AdminUsername
	return nil
}

// SubmitSecurityKey verifies an uploaded artifact and, on success, stores
// it, sets the shared verified flag and authenticates the admin.
func (g *Gate) SubmitSecurityKey(ctx context.Context, raw []byte) (*model.SecurityKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateSecurityPending {
		return nil, fmt.Errorf("%w: %s -> security key", ErrInvalidTransition, g.state)
	}

	key, err := g.verifier.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := g.flags.PutArtifact(ctx, raw); err != nil {
		return nil, fmt.Errorf("failed to store security key: %w", err)
	}
	if err := g.flags.SetVerified(ctx); err != nil {
		return nil, fmt.Errorf("failed to set verified flag: %w", err)
	}

	g.state = StateAuthenticated
	logger.Info("Security key accepted", map[string]interface{}{
		"key_id":    key.KeyID,
		"issued_to": key.IssuedTo,
	})
	return key, nil
}

// UseStoredKey authenticates the admin with the previously stored artifact.
// An artifact that no longer verifies is removed.
func (g *Gate) UseStoredKey(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateSecurityPending {
		return fmt.Errorf("%w: %s -> stored key", ErrInvalidTransition, g.state)
	}
	if err := g.storedKeyValid(ctx); err != nil {
		if !errors.Is(err, ErrNoStoredKey) {
			g.clearKey(ctx)
		}
		return err
	}
	if err := g.flags.SetVerified(ctx); err != nil {
		return fmt.Errorf("failed to set verified flag: %w", err)
	}
	g.state = StateAuthenticated
	return nil
}

// LightLogout clears the current user but keeps the stored key.
func (g *Gate) LightLogout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateNoSession
	g.user = ""
}

// FullLogout clears the user and the stored key and forces the security
// gate on the next admin login. The caller must reload.
func (g *Gate) FullLogout(ctx context.Context) (reload bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clearKey(ctx)
	if err := g.flags.SetForce(ctx); err != nil {
		logger.Warn("Failed to set force flag", map[string]interface{}{"error": err.Error()})
	}
	g.state = StateNoSession
	g.user = ""
	return true
}

// Revalidate re-checks an authenticated admin against the shared verified
// flag and the stored key. On failure the gate drops back to
// SecurityPending and reload is true.
func (g *Gate) Revalidate(ctx context.Context) (reload bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAuthenticated || g.user != model.AdminUsername {
		return false, nil
	}

	verified, err := g.flags.Verified(ctx)
	if err != nil {
		// 저장소 오류만으로 세션을 끊지는 않는다
		logger.Warn("Failed to read verified flag", map[string]interface{}{"error": err.Error()})
		return false, nil
	}
	if !verified {
		g.state = StateSecurityPending
		return true, ErrSecurityKeyRequired
	}
	if err := g.storedKeyValid(ctx); err != nil {
		g.clearKey(ctx)
		g.state = StateSecurityPending
		return true, err
	}
	return false, nil
}

func (g *Gate) storedKeyValid(ctx context.Context) error {
	raw, err := g.flags.Artifact(ctx)
	if err != nil {
		return err
	}
	_, err = g.verifier.Parse(raw)
	return err
}

func (g *Gate) clearKey(ctx context.Context) {
	if err := g.flags.ClearArtifact(ctx); err != nil {
		logger.Warn("Failed to clear stored security key", map[string]interface{}{"error": err.Error()})
	}
	if err := g.flags.ClearVerified(ctx); err != nil {
		logger.Warn("Failed to clear verified flag", map[string]interface{}{"error": err.Error()})
	}
}
