package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/geonseol-backend/pkg/logger"
)

// 이벤트 종류
const (
	EventDatasetChanged  = "dataset.changed"
	EventSecurityRevoked = "security.revoked"
	EventSessionReload   = "session.reload"
)

// Event 같은 사용자의 다른 연결로 전달되는 알림
type Event struct {
	Type    string    `json:"type"`
	Dataset string    `json:"dataset,omitempty"`
	Origin  string    `json:"origin,omitempty"` // 발생시킨 세션 (해당 세션은 제외)
	At      time.Time `json:"at"`
}

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type string `json:"type"` // revalidate, ping
}

// Client WebSocket 클라이언트
type Client struct {
	Hub       *Hub
	Conn      *Conn
	Username  string
	SessionID string
	Send      chan []byte

	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// NewClient 연결 하나에 대한 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, username, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		Username:  username,
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}
}

type outbound struct {
	username string
	origin   string
	payload  []byte
}

// Hub WebSocket 연결 관리자
type Hub struct {
	// 사용자별 연결 (여러 탭/기기)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound
	stop       chan struct{}
	stopOnce   sync.Once

	// 클라이언트가 포커스 복귀 시 보내는 재검증 요청 처리기
	onRevalidate func(sessionID string)

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *outbound, 1024),
		stop:       make(chan struct{}),
	}
}

// OnRevalidate sets the handler for client "revalidate" messages.
// Must be called before Run.
func (h *Hub) OnRevalidate(fn func(sessionID string)) {
	h.onRevalidate = fn
}

// Run Hub 실행. Stop 호출 시 종료
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Username] = append(h.clients[client.Username], client)
			total := len(h.clients[client.Username])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user":           client.Username,
				"session_id":     client.SessionID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop Hub 종료 및 모든 연결 정리
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.Username]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.Username)
	} else {
		h.clients[client.Username] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user":               client.Username,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) deliver(msg *outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[msg.username] {
		if msg.origin != "" && client.SessionID == msg.origin {
			continue
		}
		select {
		case client.Send <- msg.payload:
		default:
			// Send 채널이 막혀있음 - 비동기로 정리
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user":       msg.username,
				"session_id": client.SessionID,
			})
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for user, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, user)
	}
}

// Publish sends ev to every connection of user except the origin session.
// Delivery is best effort; a full queue drops the event.
func (h *Hub) Publish(user string, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to marshal event", err, nil)
		return
	}

	select {
	case h.broadcast <- &outbound{username: user, origin: ev.Origin, payload: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"user": user,
			"type": ev.Type,
		})
	}
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// IsUserOnline 사용자 온라인 여부 확인
func (h *Hub) IsUserOnline(user string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[user]
	return ok
}

// ConnectionCount 사용자의 열린 연결 수
func (h *Hub) ConnectionCount(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[user])
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user":  client.Username,
			"count": count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user":  client.Username,
			"error": err.Error(),
		})
		return
	}

	switch msg.Type {
	case "revalidate":
		if h.onRevalidate != nil {
			h.onRevalidate(client.SessionID)
		}
	case "ping":
		pong, _ := json.Marshal(Event{Type: "pong", At: now})
		select {
		case client.Send <- pong:
		default:
		}
	}
}
