package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/pkg/util"
)

// Context keys for session information
const (
	SessionKey  = "session"
	UsernameKey = "user"
)

// SessionLookup resolves a session id from a token. *session.Manager satisfies it.
type SessionLookup interface {
	Get(id string) (*session.Session, error)
}

type AuthMiddleware struct {
	jwtSecret string
	sessions  SessionLookup
}

func NewAuthMiddleware(jwtSecret string, sessions SessionLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		sessions:  sessions,
	}
}

// Authenticate validates the session token and attaches the server-side session.
// The gate may still be pending a security key; handlers that need data use
// RequireWorkspace.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		// Try to get token from Authorization header first
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "인증 형식이 올바르지 않습니다")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			// WebSocket 연결은 헤더를 붙일 수 없어 쿼리 파라미터 사용
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "로그인이 필요합니다")
				c.Abort()
				return
			}
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			errors.Respond(c, err)
			c.Abort()
			return
		}

		sess, err := m.sessions.Get(claims.SessionID)
		if err != nil {
			log.Warn("Session not found", map[string]interface{}{
				"session_id": claims.SessionID,
				"username":   claims.Username,
			})
			errors.Respond(c, err)
			c.Abort()
			return
		}
		sess.Touch()

		c.Set(SessionKey, sess)
		c.Set(UsernameKey, claims.Username)

		log.Debug("Session authenticated", map[string]interface{}{
			"session_id": sess.ID,
			"username":   claims.Username,
			"state":      string(sess.Gate.State()),
		})

		c.Next()
	}
}

// RequireWorkspace rejects sessions whose user is not authenticated or whose
// workspace has not finished loading.
func (m *AuthMiddleware) RequireWorkspace() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if sess.Gate.State() == session.StateSecurityPending {
			errors.Respond(c, session.ErrSecurityKeyRequired)
			c.Abort()
			return
		}
		if _, err := sess.User(); err != nil {
			errors.Respond(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only the admin account through. Use after RequireWorkspace.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		sess, ok := GetSession(c)
		if !ok {
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}
		user, err := sess.User()
		if err != nil {
			errors.Respond(c, err)
			c.Abort()
			return
		}
		if user != model.AdminUsername {
			log.Warn("Admin-only route denied", map[string]interface{}{
				"username": user,
				"path":     c.Request.URL.Path,
			})
			errors.Forbidden(c, "관리자만 사용할 수 있는 기능입니다")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession extracts the session from context
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// GetUsername extracts the token's username from context
func GetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	return v.(string), true
}
