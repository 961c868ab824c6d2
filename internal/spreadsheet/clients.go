package spreadsheet

import (
	"io"
	"strings"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/derived"
)

var clientColumns = []column{
	{"ID", 8},
	{"이름", 15},
	{"전화번호", 15},
	{"이메일", 25},
	{"주소", 30},
	{"프로젝트", 20},
	{"총 청구금액", 15},
	{"미수금", 15},
	{"비고", 30},
}

// ExportClients 건축주 목록. 청구 합계와 미수금은 청구서에서 계산한 값
func ExportClients(clients []model.Client, invoices []model.Invoice) ([]byte, error) {
	f, err := newWorkbook(ClientsSheet)
	if err != nil {
		return nil, err
	}

	rows := make([][]interface{}, 0, len(clients))
	for _, c := range clients {
		s, _ := derived.Summarize(clients, invoices, c.ID)
		rows = append(rows, []interface{}{
			c.ID, c.Name, c.Phone, c.Email, c.Address,
			strings.Join(c.Projects, ", "),
			s.TotalBilled, s.Outstanding, c.Notes,
		})
	}
	if err := writeTable(f, ClientsSheet, clientColumns, rows); err != nil {
		f.Close()
		return nil, err
	}
	return toBytes(f)
}

// ClientsTemplate 가져오기용 예시 파일
func ClientsTemplate() ([]byte, error) {
	f, err := newWorkbook(ClientTemplate)
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{{
		1, "예시건축주", "010-1234-5678", "example@email.com", "서울시 강남구 테헤란로 123",
		"주택 신축, 리모델링", 15000000, 5000000, "우수 고객",
	}}
	if err := writeTable(f, ClientTemplate, clientColumns, rows); err != nil {
		f.Close()
		return nil, err
	}
	return toBytes(f)
}

// ImportClients reads clients from the first sheet. The billed and
// outstanding columns are ignored; they are always derived from invoices.
func ImportClients(r io.Reader) ([]model.Client, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	clients := make([]model.Client, 0, len(records))
	for _, rec := range records {
		id, err := rec.integer("ID", int64(rec.index))
		if err != nil {
			return nil, err
		}
		clients = append(clients, model.Client{
			ID:         int(id),
			Name:       rec.str("이름"),
			Phone:      rec.str("전화번호"),
			Email:      rec.str("이메일"),
			Address:    rec.str("주소"),
			Notes:      rec.str("비고"),
			Projects:   splitList(rec.str("프로젝트")),
			Workplaces: []model.Workplace{},
		})
	}
	return clients, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
