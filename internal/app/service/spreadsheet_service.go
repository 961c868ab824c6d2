package service

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/spreadsheet"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"github.com/ikkim/geonseol-backend/pkg/util"
)

var ErrUnsupportedSheet = errors.New("unsupported spreadsheet")

// 시트 대상 이름 (URL 경로에 사용)
const (
	SheetClients   = "clients"
	SheetWorkItems = "work-items"
	SheetInvoices  = "invoices"
)

// Workbook 내려받기용 파일
type Workbook struct {
	Filename string
	Data     []byte
}

type SpreadsheetService interface {
	Export(s *session.Session, target string) (*Workbook, error)
	ExportInvoice(s *session.Session, invoiceID string) (*Workbook, error)
	Template(target string) (*Workbook, error)
	Import(s *session.Session, target string, r io.Reader) (int, error)
}

type spreadsheetService struct {
	now func() time.Time
}

func NewSpreadsheetService() SpreadsheetService {
	return &spreadsheetService{now: time.Now}
}

func (sv *spreadsheetService) Export(s *session.Session, target string) (*Workbook, error) {
	if _, err := s.User(); err != nil {
		return nil, err
	}

	var (
		data []byte
		name string
		err  error
	)
	switch target {
	case SheetClients:
		data, err = spreadsheet.ExportClients(s.Workspace.Clients.Get(), s.Workspace.Invoices.Get())
		name = "건축주_목록.xlsx"
	case SheetWorkItems:
		data, err = spreadsheet.ExportWorkItems(s.Workspace.WorkItems.Get())
		name = "작업_항목.xlsx"
	case SheetInvoices:
		data, err = spreadsheet.ExportInvoices(s.Workspace.Invoices.Get())
		name = "청구서_목록.xlsx"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSheet, target)
	}
	if err != nil {
		return nil, err
	}
	return &Workbook{Filename: name, Data: data}, nil
}

func (sv *spreadsheetService) ExportInvoice(s *session.Session, invoiceID string) (*Workbook, error) {
	if _, err := s.User(); err != nil {
		return nil, err
	}
	for _, inv := range s.Workspace.Invoices.Get() {
		if inv.ID == invoiceID {
			data, err := spreadsheet.ExportInvoiceDetail(inv)
			if err != nil {
				return nil, err
			}
			return &Workbook{Filename: "청구서_" + inv.ID + ".xlsx", Data: data}, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (sv *spreadsheetService) Template(target string) (*Workbook, error) {
	switch target {
	case SheetClients:
		data, err := spreadsheet.ClientsTemplate()
		if err != nil {
			return nil, err
		}
		return &Workbook{Filename: "건축주_템플릿.xlsx", Data: data}, nil
	case SheetWorkItems:
		data, err := spreadsheet.WorkItemsTemplate()
		if err != nil {
			return nil, err
		}
		return &Workbook{Filename: "작업항목_템플릿.xlsx", Data: data}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSheet, target)
}

// Import 가져온 행을 기존 목록 뒤에 추가. 기존 ID와 겹치면 새 ID를 부여한다.
// 파일에 오류가 있으면 아무것도 반영하지 않는다.
func (sv *spreadsheetService) Import(s *session.Session, target string, r io.Reader) (int, error) {
	user, err := s.User()
	if err != nil {
		return 0, err
	}

	var n int
	switch target {
	case SheetClients:
		imported, err := spreadsheet.ImportClients(r)
		if err != nil {
			return 0, err
		}
		_, err = s.Workspace.Clients.Update(func(cur []model.Client) ([]model.Client, error) {
			ids := make([]int, 0, len(cur)+len(imported))
			for _, c := range cur {
				ids = append(ids, c.ID)
			}
			next := append(make([]model.Client, 0, len(cur)+len(imported)), cur...)
			for _, c := range imported {
				c.ID = uniqueID(c.ID, &ids)
				next = append(next, c)
			}
			return next, nil
		})
		if err != nil {
			return 0, err
		}
		n = len(imported)

	case SheetWorkItems:
		imported, err := spreadsheet.ImportWorkItems(r, sv.now().Format(dateLayout))
		if err != nil {
			return 0, err
		}
		clients := s.Workspace.Clients.Get()
		_, err = s.Workspace.WorkItems.Update(func(cur []model.WorkItem) ([]model.WorkItem, error) {
			ids := make([]int, 0, len(cur)+len(imported))
			for _, it := range cur {
				ids = append(ids, it.ID)
			}
			next := append(make([]model.WorkItem, 0, len(cur)+len(imported)), cur...)
			for _, it := range imported {
				it.ID = uniqueID(it.ID, &ids)
				it.ClientID = relinkClient(it, clients)
				next = append(next, it)
			}
			return next, nil
		})
		if err != nil {
			return 0, err
		}
		n = len(imported)

	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedSheet, target)
	}

	logger.Info("Spreadsheet imported", map[string]interface{}{
		"user":   user,
		"target": target,
		"rows":   n,
	})
	return n, nil
}

// relinkClient 건축주 가져오기에서 ID가 바뀐 경우를 위해, 행의 건축주명이
// 참조 ID의 이름과 다르면 같은 이름의 건축주 ID로 연결한다. 뒤에 추가된 항목이 우선.
func relinkClient(it model.WorkItem, clients []model.Client) int {
	name := strings.TrimSpace(it.ClientName)
	if name == "" {
		return it.ClientID
	}
	for _, c := range clients {
		if c.ID == it.ClientID && strings.TrimSpace(c.Name) == name {
			return it.ClientID
		}
	}
	for i := len(clients) - 1; i >= 0; i-- {
		if strings.TrimSpace(clients[i].Name) == name {
			return clients[i].ID
		}
	}
	return it.ClientID
}

// uniqueID keeps id unless it is already taken, and records the result.
func uniqueID(id int, taken *[]int) int {
	for _, t := range *taken {
		if t == id {
			id = util.NextNumericID(*taken)
			break
		}
	}
	*taken = append(*taken, id)
	return id
}
