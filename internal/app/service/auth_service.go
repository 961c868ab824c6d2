package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/app/repository"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"github.com/ikkim/geonseol-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken   = errors.New("username already exists")
	ErrInvalidUsername = errors.New("invalid username")
)

const maxUsernameLength = 100

// AuthResult 로그인 결과: 세션과 액세스 토큰
type AuthResult struct {
	Session *session.Session
	Token   string
	State   session.State
}

type AuthService interface {
	Register(username, password, displayName string) (*model.Account, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	BeginSecurityKey(ctx context.Context) (*AuthResult, error)
	SubmitSecurityKey(ctx context.Context, s *session.Session, raw []byte) (*model.SecurityKey, error)
	UseStoredKey(ctx context.Context, s *session.Session) error
	Logout(ctx context.Context, s *session.Session, full bool) (reload bool, err error)
	Revalidate(ctx context.Context, s *session.Session) (reload bool, err error)
	ListUsers() ([]model.Account, error)
}

type authService struct {
	accountRepo   repository.AccountRepository
	sessions      *session.Manager
	events        EventPublisher
	jwtSecret     string
	sessionExpiry time.Duration
}

func NewAuthService(
	accountRepo repository.AccountRepository,
	sessions *session.Manager,
	events EventPublisher,
	jwtSecret string,
	sessionExpiry time.Duration,
) AuthService {
	return &authService{
		accountRepo:   accountRepo,
		sessions:      sessions,
		events:        publisherOrNop(events),
		jwtSecret:     jwtSecret,
		sessionExpiry: sessionExpiry,
	}
}

func (s *authService) Register(username, password, displayName string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, err
	}

	logger.Info("Attempting account registration", map[string]interface{}{
		"username": username,
	})

	existing, err := s.accountRepo.FindByUsername(username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing account", err, map[string]interface{}{
			"username": username,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: username already exists", map[string]interface{}{
			"username": username,
		})
		return nil, ErrUsernameTaken
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"username": username,
		})
		return nil, err
	}

	if displayName == "" {
		displayName = username
	}
	account := &model.Account{
		Username:     username,
		PasswordHash: hashed,
		DisplayName:  displayName,
	}
	if err := s.accountRepo.Create(account); err != nil {
		return nil, err
	}

	logger.Info("Account registered successfully", map[string]interface{}{
		"username": username,
	})
	return account, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"username": username,
	})

	sess := s.sessions.Create()
	if err := sess.Gate.BeginLogin(); err != nil {
		s.sessions.Remove(sess.ID)
		return nil, err
	}

	account, err := s.accountRepo.FindByUsername(username)
	if err != nil {
		sess.Gate.AbortLogin()
		s.sessions.Remove(sess.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: account not found", map[string]interface{}{
				"username": username,
			})
			return nil, session.ErrInvalidCredentials
		}
		logger.Error("Failed to find account", err, map[string]interface{}{
			"username": username,
		})
		return nil, err
	}

	if !util.VerifyPassword(account.PasswordHash, password) {
		sess.Gate.AbortLogin()
		s.sessions.Remove(sess.ID)
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"username": username,
		})
		return nil, session.ErrInvalidCredentials
	}

	state, err := sess.Gate.CompleteLogin(ctx, account.Username)
	if err != nil {
		s.sessions.Remove(sess.ID)
		return nil, err
	}
	if err := sess.Sync(ctx); err != nil {
		s.sessions.Remove(sess.ID)
		logger.Error("Failed to load workspace", err, map[string]interface{}{
			"username": username,
		})
		return nil, err
	}

	if err := s.accountRepo.UpdateLastLogin(account.Username, time.Now()); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}

	result, err := s.issue(sess, account.Username, state)
	if err != nil {
		s.sessions.Remove(sess.ID)
		return nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"username":   username,
		"session_id": sess.ID,
		"state":      string(state),
	})
	return result, nil
}

// BeginSecurityKey 비밀번호 없이 보안키로 관리자 세션 시작
func (s *authService) BeginSecurityKey(ctx context.Context) (*AuthResult, error) {
	sess := s.sessions.Create()
	if err := sess.Gate.BeginSecurityKey(); err != nil {
		s.sessions.Remove(sess.ID)
		return nil, err
	}
	result, err := s.issue(sess, model.AdminUsername, sess.Gate.State())
	if err != nil {
		s.sessions.Remove(sess.ID)
		return nil, err
	}
	return result, nil
}

func (s *authService) SubmitSecurityKey(ctx context.Context, sess *session.Session, raw []byte) (*model.SecurityKey, error) {
	key, err := sess.Gate.SubmitSecurityKey(ctx, raw)
	if err != nil {
		logger.Warn("Security key rejected", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return nil, err
	}
	if err := sess.Sync(ctx); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *authService) UseStoredKey(ctx context.Context, sess *session.Session) error {
	if err := sess.Gate.UseStoredKey(ctx); err != nil {
		return err
	}
	return sess.Sync(ctx)
}

// Logout 세션 종료. full 이면 저장된 보안키까지 삭제하고
// 다른 관리자 연결에 키 폐기를 알린다
func (s *authService) Logout(ctx context.Context, sess *session.Session, full bool) (bool, error) {
	user := sess.Gate.User()
	reload := false
	if full {
		reload = sess.Gate.FullLogout(ctx)
	} else {
		sess.Gate.LightLogout()
	}
	if err := sess.Sync(ctx); err != nil {
		logger.Warn("Failed to reset workspace on logout", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
	s.sessions.Remove(sess.ID)

	if full {
		s.events.Publish(model.AdminUsername, websocket.Event{
			Type:   websocket.EventSecurityRevoked,
			Origin: sess.ID,
		})
	}

	logger.Info("User logged out", map[string]interface{}{
		"username":   user,
		"session_id": sess.ID,
		"full":       full,
	})
	return reload, nil
}

// Revalidate 포커스 복귀 등에서 호출. 재검증 실패 시 작업 공간을 닫고
// 해당 세션에 다시 불러오기를 알린다
func (s *authService) Revalidate(ctx context.Context, sess *session.Session) (bool, error) {
	user := sess.Gate.User()
	reload, err := sess.Gate.Revalidate(ctx)
	if !reload {
		return false, err
	}

	if serr := sess.Sync(ctx); serr != nil {
		logger.Warn("Failed to reset workspace after revalidation", map[string]interface{}{
			"session_id": sess.ID,
			"error":      serr.Error(),
		})
	}
	s.events.Publish(user, websocket.Event{Type: websocket.EventSessionReload})

	logger.Warn("Security revalidation failed", map[string]interface{}{
		"username":   user,
		"session_id": sess.ID,
		"error":      errString(err),
	})
	return true, err
}

func (s *authService) ListUsers() ([]model.Account, error) {
	return s.accountRepo.List()
}

func (s *authService) issue(sess *session.Session, username string, state session.State) (*AuthResult, error) {
	token, err := util.GenerateSessionToken(sess.ID, username, s.jwtSecret, s.sessionExpiry)
	if err != nil {
		logger.Error("Failed to generate session token", err, map[string]interface{}{
			"session_id": sess.ID,
		})
		return nil, err
	}
	return &AuthResult{Session: sess, Token: token, State: state}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
