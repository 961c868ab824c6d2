package controller

import (
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	apperrors "github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/middleware"
	ws "github.com/ikkim/geonseol-backend/internal/websocket"
)

// WSController 데이터 변경/보안 이벤트 푸시
type WSController struct {
	hub      *ws.Hub
	upgrader gorilla.Upgrader
}

func NewWSController(hub *ws.Hub, allowedOrigins []string) *WSController {
	return &WSController{
		hub:      hub,
		upgrader: ws.Upgrader(allowedOrigins),
	}
}

// Connect WebSocket 연결 처리
// GET /ws?token=...
// 쿼리 파라미터로 토큰을 받지만, 로깅하지 않음 (보안)
func (ctrl *WSController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	// 미들웨어에서 이미 인증 완료
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	username, _ := middleware.GetUsername(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, username, sess.ID)
	ctrl.hub.Register(client)

	// goroutine으로 읽기/쓰기 시작
	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"username":   username,
		"session_id": sess.ID,
	})
}
