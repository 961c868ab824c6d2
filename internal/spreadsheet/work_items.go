package spreadsheet

import (
	"fmt"
	"io"

	"github.com/ikkim/geonseol-backend/internal/app/model"
)

var workItemColumns = []column{
	{"ID", 8},
	{"건축주ID", 10},
	{"건축주", 12},
	{"작업장ID", 10},
	{"작업장", 20},
	{"프로젝트", 15},
	{"작업명", 15},
	{"카테고리", 12},
	{"기본단가", 15},
	{"단위", 8},
	{"세부작업", 30},
	{"상태", 10},
	{"날짜", 12},
	{"비고", 25},
}

func workItemRow(it model.WorkItem) []interface{} {
	return []interface{}{
		it.ID, it.ClientID, it.ClientName, it.WorkplaceID, it.WorkplaceName,
		it.ProjectName, it.Name, it.Category, it.DefaultPrice, it.Unit,
		it.Description, string(it.Status), it.Date, it.Notes,
	}
}

func ExportWorkItems(items []model.WorkItem) ([]byte, error) {
	f, err := newWorkbook(WorkItemsSheet)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, workItemRow(it))
	}
	if err := writeTable(f, WorkItemsSheet, workItemColumns, rows); err != nil {
		f.Close()
		return nil, err
	}
	return toBytes(f)
}

func WorkItemsTemplate() ([]byte, error) {
	f, err := newWorkbook(WorkItemTemplate)
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{workItemRow(model.WorkItem{
		ID:            1,
		ClientID:      1,
		ClientName:    "예시건축주",
		WorkplaceID:   1,
		WorkplaceName: "신축 현장",
		ProjectName:   "주택 신축",
		Name:          "기초공사",
		Category:      "토목공사",
		DefaultPrice:  3000000,
		Unit:          "식",
		Description:   "건물 기초 및 지반 작업",
		Status:        model.WorkStatusDone,
		Date:          "2024-09-01",
		Notes:         "콘크리트 강도 확인 필요",
	})}
	if err := writeTable(f, WorkItemTemplate, workItemColumns, rows); err != nil {
		f.Close()
		return nil, err
	}
	return toBytes(f)
}

// ImportWorkItems reads work items from the first sheet. Missing ids take
// the row position, missing client and workplace ids default to 1, a
// missing status is 예정 and a missing date is today.
func ImportWorkItems(r io.Reader, today string) ([]model.WorkItem, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	items := make([]model.WorkItem, 0, len(records))
	for _, rec := range records {
		id, err := rec.integer("ID", int64(rec.index))
		if err != nil {
			return nil, err
		}
		clientID, err := rec.integer("건축주ID", 1)
		if err != nil {
			return nil, err
		}
		workplaceID, err := rec.integer("작업장ID", 1)
		if err != nil {
			return nil, err
		}
		price, err := rec.integer("기본단가", 0)
		if err != nil {
			return nil, err
		}
		qty, err := rec.number("수량")
		if err != nil {
			return nil, err
		}

		status := model.WorkStatus(rec.str("상태"))
		if status == "" {
			status = model.WorkStatusPlanned
		}
		if !status.Valid() {
			return nil, fmt.Errorf("%w: row %d column %q: unknown status %q", ErrFormat, rec.row, "상태", status)
		}
		date := rec.str("날짜")
		if date == "" {
			date = today
		}

		items = append(items, model.WorkItem{
			ID:            int(id),
			ClientID:      int(clientID),
			ClientName:    rec.str("건축주"),
			WorkplaceID:   int(workplaceID),
			WorkplaceName: rec.str("작업장"),
			ProjectName:   rec.str("프로젝트"),
			Name:          rec.str("작업명"),
			Category:      rec.str("카테고리"),
			DefaultPrice:  price,
			Quantity:      qty,
			Unit:          rec.str("단위"),
			Description:   rec.str("세부작업"),
			Status:        status,
			Date:          date,
			Notes:         rec.str("비고"),
		})
	}
	return items, nil
}
