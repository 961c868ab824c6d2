package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	apperrors "github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles account registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	account, err := ctrl.authService.Register(req.Username, req.Password, req.DisplayName)
	if err != nil {
		log.Warn("Registration failed", map[string]interface{}{
			"username": req.Username,
			"error":    err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    account,
	})
}

// Login handles password login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	result, err := ctrl.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"state": result.State,
	})
}

// BeginSecurityKey 보안키만으로 관리자 로그인 시작
// POST /api/v1/auth/security-key/begin
func (ctrl *AuthController) BeginSecurityKey(c *gin.Context) {
	result, err := ctrl.authService.BeginSecurityKey(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"state": result.State,
	})
}

// SubmitSecurityKey 보안키 파일 제출 (JSON 본문 또는 multipart file)
// POST /api/v1/auth/security-key
func (ctrl *AuthController) SubmitSecurityKey(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	raw, err := readUpload(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.SecurityKeyMalformed, "보안키 파일을 선택해주세요")
		return
	}

	key, err := ctrl.authService.SubmitSecurityKey(c.Request.Context(), sess, raw)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":    sess.Gate.State(),
		"keyId":    key.KeyID,
		"issuedTo": key.IssuedTo,
	})
}

// UseStoredKey 저장된 보안키로 인증 완료
// POST /api/v1/auth/security-key/stored
func (ctrl *AuthController) UseStoredKey(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	if err := ctrl.authService.UseStoredKey(c.Request.Context(), sess); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": sess.Gate.State()})
}

// Logout 로그아웃. mode=full 이면 저장된 보안키도 삭제
// POST /api/v1/auth/logout?mode=light|full
func (ctrl *AuthController) Logout(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	mode := c.DefaultQuery("mode", "light")
	if mode != "light" && mode != "full" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "mode 는 light 또는 full 이어야 합니다")
		return
	}

	reload, err := ctrl.authService.Logout(c.Request.Context(), sess, mode == "full")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reload": reload})
}

// Session 현재 세션 상태
// GET /api/v1/auth/session
func (ctrl *AuthController) Session(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	username, _ := middleware.GetUsername(c)
	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"state":    sess.Gate.State(),
		"loaded":   sess.Workspace.Loaded(),
	})
}

// Revalidate 창 포커스 복귀 시 보안키 재검증
// POST /api/v1/auth/revalidate
func (ctrl *AuthController) Revalidate(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	reload, err := ctrl.authService.Revalidate(c.Request.Context(), sess)
	if err != nil && !reload {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":  sess.Gate.State(),
		"reload": reload,
	})
}

// ListUsers 등록된 사용자 목록
// GET /api/v1/users
func (ctrl *AuthController) ListUsers(c *gin.Context) {
	users, err := ctrl.authService.ListUsers()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}
