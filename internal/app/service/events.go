package service

import "github.com/ikkim/geonseol-backend/internal/websocket"

// EventPublisher 같은 사용자의 다른 연결에 알림 전송
type EventPublisher interface {
	Publish(user string, ev websocket.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, websocket.Event) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
