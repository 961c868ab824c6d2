package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadsheetService_ExportImport(t *testing.T) {
	env := newTestEnv(t)
	svc := &spreadsheetService{now: func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }}

	source := env.loggedIn(t, "kim")
	require.NoError(t, source.Workspace.WorkItems.Set([]model.WorkItem{
		{ID: 1, ClientID: 1, Name: "기초공사", DefaultPrice: 3000000, Status: model.WorkStatusDone, Date: "2024-09-01"},
		{ID: 2, ClientID: 1, Name: "철거", DefaultPrice: 500000, Status: model.WorkStatusPlanned, Date: "2024-09-02"},
	}))

	book, err := svc.Export(source, SheetWorkItems)
	require.NoError(t, err)
	assert.Equal(t, "작업_항목.xlsx", book.Filename)

	target := env.loggedIn(t, "lee")
	require.NoError(t, target.Workspace.WorkItems.Set([]model.WorkItem{
		{ID: 2, Name: "기존", Status: model.WorkStatusPlanned},
	}))

	n, err := svc.Import(target, SheetWorkItems, bytes.NewReader(book.Data))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items := target.Workspace.WorkItems.Get()
	require.Len(t, items, 3)
	assert.Equal(t, "기존", items[0].Name)
	assert.Equal(t, 1, items[1].ID)
	// 겹치는 ID는 새로 부여
	assert.Equal(t, 3, items[2].ID)
	assert.Equal(t, "철거", items[2].Name)
}

func TestSpreadsheetService_ImportFormatErrorAppliesNothing(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSpreadsheetService()
	s := env.loggedIn(t, "kim")

	_, err := svc.Import(s, SheetClients, bytes.NewReader([]byte("garbage")))
	assert.ErrorIs(t, err, spreadsheet.ErrFormat)
	assert.Empty(t, s.Workspace.Clients.Get())

	_, err = svc.Import(s, SheetInvoices, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrUnsupportedSheet)
}

func TestSpreadsheetService_Guards(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSpreadsheetService()
	anonymous := env.manager.Create()

	_, err := svc.Export(anonymous, SheetClients)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	s := env.loggedIn(t, "kim")
	_, err = svc.Export(s, "estimates")
	assert.ErrorIs(t, err, ErrUnsupportedSheet)

	_, err = svc.ExportInvoice(s, "INV-2025-001")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	for _, target := range []string{SheetClients, SheetWorkItems} {
		book, err := svc.Template(target)
		require.NoError(t, err)
		assert.NotEmpty(t, book.Data)
	}
	_, err = svc.Template(SheetInvoices)
	assert.ErrorIs(t, err, ErrUnsupportedSheet)
}

func TestSpreadsheetService_ImportRelinksRenumberedClients(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSpreadsheetService()
	s := env.loggedIn(t, "kim")
	require.NoError(t, s.Workspace.Clients.Set([]model.Client{{ID: 1, Name: "김철수"}}))

	clientsBook, err := spreadsheet.ExportClients([]model.Client{{ID: 1, Name: "박영희"}}, nil)
	require.NoError(t, err)
	_, err = svc.Import(s, SheetClients, bytes.NewReader(clientsBook))
	require.NoError(t, err)

	clients := s.Workspace.Clients.Get()
	require.Len(t, clients, 2)
	require.Equal(t, 2, clients[1].ID)
	require.Equal(t, "박영희", clients[1].Name)

	itemsBook, err := spreadsheet.ExportWorkItems([]model.WorkItem{
		{ID: 1, ClientID: 1, ClientName: "박영희", Name: "도배", Status: model.WorkStatusPlanned, Date: "2025-03-01"},
		{ID: 2, ClientID: 1, ClientName: "김철수", Name: "철거", Status: model.WorkStatusPlanned, Date: "2025-03-01"},
		{ID: 3, ClientID: 7, Name: "미상", Status: model.WorkStatusPlanned, Date: "2025-03-01"},
	})
	require.NoError(t, err)
	_, err = svc.Import(s, SheetWorkItems, bytes.NewReader(itemsBook))
	require.NoError(t, err)

	tests := []struct {
		name       string
		index      int
		wantClient int
	}{
		{name: "Renumbered client followed by name", index: 0, wantClient: 2},
		{name: "Matching id and name kept", index: 1, wantClient: 1},
		{name: "No name keeps id", index: 2, wantClient: 7},
	}

	items := s.Workspace.WorkItems.Get()
	require.Len(t, items, 3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantClient, items[tt.index].ClientID)
		})
	}
}
