package service

import (
	"encoding/json"
	"errors"

	"github.com/ikkim/geonseol-backend/internal/derived"
	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

var ErrClientNotFound = errors.New("client not found")

// WorkspaceService 로그인한 사용자의 데이터셋 조회/교체 및 파생 집계
type WorkspaceService interface {
	Dataset(s *session.Session, name string) (json.RawMessage, error)
	ReplaceDataset(s *session.Session, name string, raw []byte) error
	ClientSummaries(s *session.Session) ([]derived.ClientSummary, error)
	ClientSummary(s *session.Session, clientID int) (derived.ClientSummary, error)
	Stats(s *session.Session) (derived.WorkspaceStats, error)
}

type workspaceService struct{}

func NewWorkspaceService() WorkspaceService {
	return &workspaceService{}
}

func (w *workspaceService) Dataset(s *session.Session, name string) (json.RawMessage, error) {
	if _, err := s.User(); err != nil {
		return nil, err
	}
	ds, err := namespace.ParseDataset(name)
	if err != nil {
		return nil, err
	}
	entry, err := s.Workspace.Entry(ds)
	if err != nil {
		return nil, err
	}
	raw, err := entry.MarshalValue()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ReplaceDataset 데이터셋 전체 교체 (부분 수정 없음)
func (w *workspaceService) ReplaceDataset(s *session.Session, name string, raw []byte) error {
	user, err := s.User()
	if err != nil {
		return err
	}
	ds, err := namespace.ParseDataset(name)
	if err != nil {
		return err
	}
	entry, err := s.Workspace.Entry(ds)
	if err != nil {
		return err
	}
	if err := entry.ReplaceJSON(raw); err != nil {
		logger.Warn("Dataset replace rejected", map[string]interface{}{
			"user":    user,
			"dataset": string(ds),
			"error":   err.Error(),
		})
		return err
	}

	logger.Debug("Dataset replaced", map[string]interface{}{
		"user":    user,
		"dataset": string(ds),
		"size":    len(raw),
	})
	return nil
}

func (w *workspaceService) ClientSummaries(s *session.Session) ([]derived.ClientSummary, error) {
	if _, err := s.User(); err != nil {
		return nil, err
	}
	return derived.Summaries(s.Workspace.Clients.Get(), s.Workspace.Invoices.Get()), nil
}

func (w *workspaceService) ClientSummary(s *session.Session, clientID int) (derived.ClientSummary, error) {
	if _, err := s.User(); err != nil {
		return derived.ClientSummary{}, err
	}
	summary, ok := derived.Summarize(s.Workspace.Clients.Get(), s.Workspace.Invoices.Get(), clientID)
	if !ok {
		return derived.ClientSummary{}, ErrClientNotFound
	}
	return summary, nil
}

func (w *workspaceService) Stats(s *session.Session) (derived.WorkspaceStats, error) {
	if _, err := s.User(); err != nil {
		return derived.WorkspaceStats{}, err
	}
	ws := s.Workspace
	return derived.Stats(ws.Clients.Get(), ws.WorkItems.Get(), ws.Invoices.Get(), ws.Estimates.Get()), nil
}
