package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

var ErrBackupFormat = errors.New("invalid backup format")

// BackupDatasets 백업에 포함되는 데이터셋 (도장 이미지는 제외)
var BackupDatasets = []namespace.Dataset{
	namespace.CompanyInfo,
	namespace.Clients,
	namespace.WorkItems,
	namespace.Invoices,
	namespace.Estimates,
	namespace.Units,
	namespace.Categories,
}

// RestoreResult 복원 결과
type RestoreResult struct {
	Restored []string          `json:"restored"`
	Summary  map[string]string `json:"summary"`
}

type BackupService interface {
	Export(s *session.Session) (*model.Backup, error)
	Restore(ctx context.Context, s *session.Session, raw []byte) (*RestoreResult, error)
}

type backupService struct {
	events EventPublisher
	now    func() time.Time
}

func NewBackupService(events EventPublisher) BackupService {
	return &backupService{events: publisherOrNop(events), now: time.Now}
}

func (b *backupService) Export(s *session.Session) (*model.Backup, error) {
	user, err := s.User()
	if err != nil {
		return nil, err
	}
	data, err := s.Workspace.Snapshot(BackupDatasets...)
	if err != nil {
		return nil, err
	}

	logger.Info("Backup exported", map[string]interface{}{
		"user":     user,
		"datasets": len(data),
	})
	return &model.Backup{Timestamp: b.now().UTC(), Data: data}, nil
}

// Restore 전체 문서를 먼저 검증하고, 문제가 없을 때만 각 데이터셋을
// 통째로 교체한 뒤 작업 공간을 다시 불러온다
func (b *backupService) Restore(ctx context.Context, s *session.Session, raw []byte) (*RestoreResult, error) {
	user, err := s.User()
	if err != nil {
		return nil, err
	}

	var doc struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackupFormat, err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrBackupFormat)
	}

	type pending struct {
		entry dataset.Entry
		raw   json.RawMessage
	}
	var apply []pending
	result := &RestoreResult{Restored: []string{}, Summary: map[string]string{}}

	for _, ds := range BackupDatasets {
		value, ok := doc.Data[string(ds)]
		if !ok || isJSONNull(value) {
			continue
		}
		entry, err := s.Workspace.Entry(ds)
		if err != nil {
			return nil, err
		}
		if err := entry.Validate(value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackupFormat, err)
		}
		apply = append(apply, pending{entry: entry, raw: value})
		result.Restored = append(result.Restored, string(ds))
		result.Summary[string(ds)] = summarize(value)
	}

	for _, p := range apply {
		if err := p.entry.ReplaceJSON(p.raw); err != nil {
			return nil, err
		}
	}
	if err := s.Workspace.Flush(ctx); err != nil {
		return nil, err
	}

	s.Workspace.Reset()
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	b.events.Publish(user, websocket.Event{Type: websocket.EventSessionReload, Origin: s.ID})

	logger.Info("Backup restored", map[string]interface{}{
		"user":     user,
		"restored": result.Restored,
	})
	return result, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// summarize 배열이면 항목 수, 아니면 복원 완료
func summarize(raw json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return fmt.Sprintf("%d개 항목", len(items))
	}
	return "복원 완료"
}
