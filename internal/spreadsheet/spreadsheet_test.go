package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func makeWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func readSheet(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExportClients_DerivedColumns(t *testing.T) {
	id := 1
	clients := []model.Client{
		{ID: 1, Name: "김건축", Projects: []string{"주택 신축", "리모델링"}},
		{ID: 2, Name: "이건축"},
	}
	invoices := []model.Invoice{
		{ID: "INV-2024-001", ClientID: &id, Amount: 1000000, Status: model.InvoiceStatusPaid},
		{ID: "INV-2024-002", ClientID: &id, Amount: 500000, Status: model.InvoiceStatusUnpaid},
	}

	data, err := ExportClients(clients, invoices)
	require.NoError(t, err)

	rows := readSheet(t, data, ClientsSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "이름", "전화번호", "이메일", "주소", "프로젝트", "총 청구금액", "미수금", "비고"}, rows[0])
	assert.Equal(t, "주택 신축, 리모델링", rows[1][5])
	assert.Equal(t, "1500000", rows[1][6])
	assert.Equal(t, "500000", rows[1][7])
	assert.Equal(t, "0", rows[2][6])
}

func TestImportClients(t *testing.T) {
	data := makeWorkbook(t, [][]interface{}{
		{"ID", "이름", "전화번호", "이메일", "주소", "프로젝트", "총 청구금액", "미수금", "비고"},
		{7, "김건축", "010-1111-2222", "kim@example.com", "서울", "주택 신축, 리모델링", 999, 111, "우수"},
		{},
		{"", "이건축", "", "", "", "", "", "", ""},
	})

	clients, err := ImportClients(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, clients, 2)

	assert.Equal(t, 7, clients[0].ID)
	assert.Equal(t, "김건축", clients[0].Name)
	assert.Equal(t, []string{"주택 신축", "리모델링"}, clients[0].Projects)
	assert.Equal(t, []model.Workplace{}, clients[0].Workplaces)

	// 빈 행도 순번에 포함
	assert.Equal(t, 3, clients[1].ID)
	assert.Equal(t, []string{}, clients[1].Projects)
}

func TestImportWorkItems(t *testing.T) {
	header := []interface{}{"ID", "건축주ID", "건축주", "작업장ID", "작업장", "프로젝트", "작업명", "카테고리", "기본단가", "단위", "세부작업", "상태", "날짜", "비고"}

	tests := []struct {
		name    string
		rows    [][]interface{}
		wantErr string
		check   func(t *testing.T, items []model.WorkItem)
	}{
		{
			name: "defaults",
			rows: [][]interface{}{header, {"", "", "김건축", "", "", "", "기초공사", "토목공사", "3,000,000", "식"}},
			check: func(t *testing.T, items []model.WorkItem) {
				require.Len(t, items, 1)
				it := items[0]
				assert.Equal(t, 1, it.ID)
				assert.Equal(t, 1, it.ClientID)
				assert.Equal(t, 1, it.WorkplaceID)
				assert.Equal(t, int64(3000000), it.DefaultPrice)
				assert.Equal(t, model.WorkStatusPlanned, it.Status)
				assert.Equal(t, "2025-03-01", it.Date)
			},
		},
		{
			name: "explicit values",
			rows: [][]interface{}{header, {5, 2, "이건축", 3, "현장", "신축", "철거", "철거공사", 500000, "식", "", "완료", "2024-09-01", "메모"}},
			check: func(t *testing.T, items []model.WorkItem) {
				require.Len(t, items, 1)
				assert.Equal(t, 5, items[0].ID)
				assert.Equal(t, 2, items[0].ClientID)
				assert.Equal(t, model.WorkStatusDone, items[0].Status)
				assert.Equal(t, "2024-09-01", items[0].Date)
			},
		},
		{
			name:    "non-numeric price",
			rows:    [][]interface{}{header, {1, 1, "a", 1, "", "", "x", "", 100}, {2, 1, "b", 1, "", "", "y", "", "많음"}},
			wantErr: "row 3",
		},
		{
			name:    "unknown status",
			rows:    [][]interface{}{header, {1, 1, "a", 1, "", "", "x", "", 100, "", "", "끝"}},
			wantErr: "unknown status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ImportWorkItems(bytes.NewReader(makeWorkbook(t, tt.rows)), "2025-03-01")
			if tt.wantErr != "" {
				assert.ErrorIs(t, err, ErrFormat)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, items)
		})
	}
}

func TestImport_NotAWorkbook(t *testing.T) {
	_, err := ImportClients(bytes.NewReader([]byte("not a spreadsheet")))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestTemplatesImportCleanly(t *testing.T) {
	data, err := ClientsTemplate()
	require.NoError(t, err)
	clients, err := ImportClients(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "예시건축주", clients[0].Name)

	data, err = WorkItemsTemplate()
	require.NoError(t, err)
	items, err := ImportWorkItems(bytes.NewReader(data), "2025-01-01")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.WorkStatusDone, items[0].Status)
	assert.Equal(t, int64(3000000), items[0].DefaultPrice)
}

func TestExportInvoices(t *testing.T) {
	invoices := []model.Invoice{{
		ID: "INV-2024-001", Client: "김건축", Amount: 1500000, Status: model.InvoiceStatusSent,
		Date: "2024-09-01", DueDate: "2024-09-15",
		WorkItems: []model.InvoiceLine{{Name: "기초", Quantity: 1, UnitPrice: 1500000, Total: 1500000}},
	}}

	data, err := ExportInvoices(invoices)
	require.NoError(t, err)
	rows := readSheet(t, data, InvoicesSheet)
	require.Len(t, rows, 2)
	assert.Equal(t, "청구서번호", rows[0][0])
	assert.Equal(t, []string{"INV-2024-001", "김건축", "", "", "1500000", "발송됨", "2024-09-01", "2024-09-15", "1"}, rows[1])

	data, err = ExportInvoiceDetail(invoices[0])
	require.NoError(t, err)
	info := readSheet(t, data, InvoiceInfoSheet)
	assert.Equal(t, []string{"청구서 번호", "INV-2024-001"}, info[0])
	lines := readSheet(t, data, InvoiceLinesSheet)
	require.Len(t, lines, 2)
	assert.Equal(t, "기초", lines[1][1])
}
