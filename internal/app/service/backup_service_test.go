package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService_Export(t *testing.T) {
	env := newTestEnv(t)
	s := env.loggedIn(t, "kim")
	require.NoError(t, s.Workspace.Clients.Set([]model.Client{{ID: 1, Name: "김건축"}}))

	svc := &backupService{events: nopPublisher{}, now: func() time.Time {
		return time.Date(2025, 9, 11, 0, 0, 0, 0, time.UTC)
	}}
	backup, err := svc.Export(s)
	require.NoError(t, err)

	assert.Equal(t, "2025-09-11T00:00:00Z", backup.Timestamp.Format(time.RFC3339))
	assert.Len(t, backup.Data, len(BackupDatasets))
	assert.NotContains(t, backup.Data, "STAMP_IMAGE")

	var clients []model.Client
	require.NoError(t, json.Unmarshal(backup.Data["CLIENTS"], &clients))
	assert.Equal(t, "김건축", clients[0].Name)
}

func TestBackupService_Restore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	events := &fakePublisher{}
	svc := NewBackupService(events)

	s := env.loggedIn(t, "kim")
	require.NoError(t, s.Workspace.WorkItems.Set([]model.WorkItem{{ID: 9, Name: "기존", Status: model.WorkStatusPlanned}}))

	doc := `{
		"timestamp": "2025-09-11T10:00:00.000Z",
		"data": {
			"CLIENTS": [{"id":1,"name":"김건축"},{"id":2,"name":"이건축"}],
			"COMPANY_INFO": {"name":"건설회사","phone":"02-000-0000"},
			"INVOICES": null,
			"UNKNOWN": [1,2,3]
		}
	}`
	result, err := svc.Restore(ctx, s, []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"COMPANY_INFO", "CLIENTS"}, result.Restored)
	assert.Equal(t, "2개 항목", result.Summary["CLIENTS"])
	assert.Equal(t, "복원 완료", result.Summary["COMPANY_INFO"])

	assert.True(t, s.Workspace.Loaded())
	assert.Len(t, s.Workspace.Clients.Get(), 2)
	assert.Equal(t, "건설회사", s.Workspace.CompanyInfo.Get().Name)
	// 백업에 없는 데이터셋은 그대로
	assert.Len(t, s.Workspace.WorkItems.Get(), 1)

	// 다른 세션에서 다시 읽어도 같은 값
	other := env.loggedIn(t, "kim")
	assert.Len(t, other.Workspace.Clients.Get(), 2)

	require.Len(t, events.events, 1)
	assert.Equal(t, websocket.EventSessionReload, events.events[0].event.Type)
	assert.Equal(t, s.ID, events.events[0].event.Origin)
}

func TestBackupService_RestoreRejectsWholeDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewBackupService(nil)
	s := env.loggedIn(t, "kim")
	require.NoError(t, s.Workspace.Clients.Set([]model.Client{{ID: 1, Name: "원본"}}))

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `backup`},
		{name: "missing data", doc: `{"timestamp":"2025-01-01T00:00:00Z"}`},
		{name: "one bad dataset", doc: `{"data":{"CLIENTS":[{"id":5,"name":"새"}],"INVOICES":[{"id":"INV-1","status":"없는상태"}]}}`},
		{name: "wrong type", doc: `{"data":{"CLIENTS":{"id":1}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Restore(ctx, s, []byte(tt.doc))
			assert.ErrorIs(t, err, ErrBackupFormat)

			clients := s.Workspace.Clients.Get()
			require.Len(t, clients, 1)
			assert.Equal(t, "원본", clients[0].Name)
		})
	}
}
