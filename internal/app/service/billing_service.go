package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"github.com/ikkim/geonseol-backend/pkg/util"
)

var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrEstimateNotFound  = errors.New("estimate not found")
	ErrWorkItemNotFound  = errors.New("work item not found")
	ErrEmptyInvoice      = errors.New("invoice has no work items")
	ErrEstimateConverted = errors.New("estimate already converted")
	ErrInvalidDate       = errors.New("invalid date")
)

const (
	dateLayout        = "2006-01-02"
	invoiceDueDays    = 14
	estimateValidDays = 30
)

// CreateInvoiceInput 청구서 생성 요청
type CreateInvoiceInput struct {
	ClientID         int                 `json:"clientId"`
	WorkplaceID      int                 `json:"workplaceId"`
	Project          string              `json:"project"`
	WorkplaceAddress string              `json:"workplaceAddress"`
	Date             string              `json:"date"`
	DueDate          string              `json:"dueDate"`
	Lines            []model.InvoiceLine `json:"workItems"`
	// WorkItemIDs 완료된 작업 항목을 기본 단가로 청구 항목에 추가
	WorkItemIDs []int `json:"workItemIds"`
}

// CreateEstimateInput 견적서 생성 요청
type CreateEstimateInput struct {
	ClientID    int                  `json:"clientId"`
	WorkplaceID int                  `json:"workplaceId"`
	ProjectName string               `json:"projectName"`
	Title       string               `json:"title"`
	Date        string               `json:"date"`
	ValidUntil  string               `json:"validUntil"`
	Items       []model.EstimateItem `json:"items"`
	Notes       string               `json:"notes"`
	Terms       string               `json:"terms"`
}

// AmountWords 청구 금액 한글 표기
type AmountWords struct {
	InvoiceID string `json:"invoiceId"`
	Amount    int64  `json:"amount"`
	Words     string `json:"words"`
}

type BillingService interface {
	CreateInvoice(s *session.Session, in CreateInvoiceInput) (*model.Invoice, error)
	CreateEstimate(s *session.Session, in CreateEstimateInput) (*model.Estimate, error)
	ConvertEstimateToWorkItems(s *session.Session, estimateID string) ([]model.WorkItem, error)
	CompletedWorkItems(s *session.Session, clientID int) ([]model.WorkItem, error)
	AmountInWords(s *session.Session, invoiceID string) (*AmountWords, error)
}

type billingService struct {
	now func() time.Time
}

func NewBillingService() BillingService {
	return &billingService{now: time.Now}
}

// InvoiceLineFromWorkItem 작업 항목을 청구 항목으로 변환
func InvoiceLineFromWorkItem(item model.WorkItem, quantity float64, unitPrice int64) model.InvoiceLine {
	return model.InvoiceLine{
		Name:        item.Name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       model.LineTotal(quantity, unitPrice),
		Description: item.Description,
		Category:    item.Category,
		Notes:       item.Notes,
	}
}

func findClient(clients []model.Client, id int) (*model.Client, bool) {
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], true
		}
	}
	return nil, false
}

// resolveDate 빈 값이면 오늘, 아니면 YYYY-MM-DD 형식 확인
func (b *billingService) resolveDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		now := b.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

func (b *billingService) CreateInvoice(s *session.Session, in CreateInvoiceInput) (*model.Invoice, error) {
	user, err := s.User()
	if err != nil {
		return nil, err
	}

	client, ok := findClient(s.Workspace.Clients.Get(), in.ClientID)
	if !ok {
		return nil, ErrClientNotFound
	}

	date, err := b.resolveDate(in.Date)
	if err != nil {
		return nil, err
	}
	due := date.AddDate(0, 0, invoiceDueDays)
	if in.DueDate != "" {
		if due, err = time.Parse(dateLayout, in.DueDate); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, in.DueDate)
		}
	}

	lines := make([]model.InvoiceLine, 0, len(in.Lines)+len(in.WorkItemIDs))
	lines = append(lines, in.Lines...)
	if len(in.WorkItemIDs) > 0 {
		items := s.Workspace.WorkItems.Get()
		for _, id := range in.WorkItemIDs {
			item, ok := findWorkItem(items, id)
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrWorkItemNotFound, id)
			}
			qty := item.Quantity
			if qty == 0 {
				qty = 1
			}
			lines = append(lines, InvoiceLineFromWorkItem(*item, qty, item.DefaultPrice))
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInvoice
	}

	address := in.WorkplaceAddress
	project := in.Project
	if wp, ok := client.FindWorkplace(in.WorkplaceID); ok {
		if address == "" {
			address = wp.Address
		}
		if project == "" {
			project = wp.Project
		}
	}

	clientID := client.ID
	inv := model.Invoice{
		ClientID:         &clientID,
		Client:           client.Name,
		Project:          project,
		WorkplaceAddress: address,
		Status:           model.InvoiceStatusPending,
		Date:             date.Format(dateLayout),
		DueDate:          due.Format(dateLayout),
		WorkItems:        lines,
	}
	inv.Recalculate()

	_, err = s.Workspace.Invoices.Update(func(cur []model.Invoice) ([]model.Invoice, error) {
		ids := make([]string, len(cur))
		for i := range cur {
			ids[i] = cur[i].ID
		}
		inv.ID = util.NextSequenceID("INV", date.Year(), ids)
		next := make([]model.Invoice, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, inv), nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Invoice created", map[string]interface{}{
		"user":       user,
		"invoice_id": inv.ID,
		"amount":     inv.Amount,
	})
	return &inv, nil
}

func (b *billingService) CreateEstimate(s *session.Session, in CreateEstimateInput) (*model.Estimate, error) {
	user, err := s.User()
	if err != nil {
		return nil, err
	}

	client, ok := findClient(s.Workspace.Clients.Get(), in.ClientID)
	if !ok {
		return nil, ErrClientNotFound
	}

	date, err := b.resolveDate(in.Date)
	if err != nil {
		return nil, err
	}
	validUntil := date.AddDate(0, 0, estimateValidDays)
	if in.ValidUntil != "" {
		if validUntil, err = time.Parse(dateLayout, in.ValidUntil); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, in.ValidUntil)
		}
	}

	est := model.Estimate{
		ClientID:    client.ID,
		ClientName:  client.Name,
		ProjectName: in.ProjectName,
		Title:       in.Title,
		Date:        date.Format(dateLayout),
		ValidUntil:  validUntil.Format(dateLayout),
		Status:      model.EstimateStatusDraft,
		Items:       append([]model.EstimateItem(nil), in.Items...),
		Notes:       in.Notes,
		Terms:       in.Terms,
	}
	if wp, ok := client.FindWorkplace(in.WorkplaceID); ok {
		est.WorkplaceID = wp.ID
		est.WorkplaceName = wp.Name
		est.WorkplaceAddress = wp.Address
		if est.ProjectName == "" {
			est.ProjectName = wp.Project
		}
	}
	if est.Items == nil {
		est.Items = []model.EstimateItem{}
	}
	est.Recalculate()

	_, err = s.Workspace.Estimates.Update(func(cur []model.Estimate) ([]model.Estimate, error) {
		ids := make([]string, len(cur))
		for i := range cur {
			ids[i] = cur[i].ID
		}
		est.ID = util.NextSequenceID("EST", date.Year(), ids)
		next := make([]model.Estimate, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, est), nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Estimate created", map[string]interface{}{
		"user":        user,
		"estimate_id": est.ID,
		"total":       est.Total,
	})
	return &est, nil
}

// ConvertEstimateToWorkItems 견적 항목을 '예정' 작업 항목으로 추가하고
// 견적서를 승인 상태로 변경
func (b *billingService) ConvertEstimateToWorkItems(s *session.Session, estimateID string) ([]model.WorkItem, error) {
	user, err := s.User()
	if err != nil {
		return nil, err
	}

	// 상태 확인과 승인 처리를 한 번에 해서 같은 견적서가 두 번 전환되지 않게 한다
	var est model.Estimate
	var prevStatus model.EstimateStatus
	_, err = s.Workspace.Estimates.Update(func(cur []model.Estimate) ([]model.Estimate, error) {
		idx := -1
		for i := range cur {
			if cur[i].ID == estimateID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrEstimateNotFound
		}
		if cur[idx].Status == model.EstimateStatusApproved {
			return nil, ErrEstimateConverted
		}
		est = cur[idx]
		prevStatus = cur[idx].Status

		next := make([]model.Estimate, len(cur))
		copy(next, cur)
		next[idx].Status = model.EstimateStatusApproved
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	today := b.now().Format(dateLayout)
	var created []model.WorkItem
	_, err = s.Workspace.WorkItems.Update(func(cur []model.WorkItem) ([]model.WorkItem, error) {
		ids := make([]int, len(cur))
		for i := range cur {
			ids[i] = cur[i].ID
		}
		nextID := util.NextNumericID(ids)

		created = make([]model.WorkItem, 0, len(est.Items))
		for i, it := range est.Items {
			created = append(created, model.WorkItem{
				ID:            nextID + i,
				ClientID:      est.ClientID,
				ClientName:    est.ClientName,
				WorkplaceID:   est.WorkplaceID,
				WorkplaceName: est.WorkplaceName,
				ProjectName:   est.ProjectName,
				Name:          it.Name,
				Category:      it.Category,
				DefaultPrice:  it.UnitPrice,
				Quantity:      it.Quantity,
				Unit:          it.Unit,
				Description:   it.Description,
				Status:        model.WorkStatusPlanned,
				Date:          today,
				Notes:         it.Notes,
			})
		}
		next := make([]model.WorkItem, 0, len(cur)+len(created))
		next = append(next, cur...)
		return append(next, created...), nil
	})
	if err != nil {
		// 작업 항목 추가에 실패하면 승인 표시를 되돌린다
		_, _ = s.Workspace.Estimates.Update(func(cur []model.Estimate) ([]model.Estimate, error) {
			next := make([]model.Estimate, len(cur))
			copy(next, cur)
			for i := range next {
				if next[i].ID == estimateID {
					next[i].Status = prevStatus
				}
			}
			return next, nil
		})
		return nil, err
	}

	logger.Info("Estimate converted to work items", map[string]interface{}{
		"user":        user,
		"estimate_id": estimateID,
		"work_items":  len(created),
	})
	return created, nil
}

// CompletedWorkItems 청구 대상이 되는 '완료' 작업 항목
func (b *billingService) CompletedWorkItems(s *session.Session, clientID int) ([]model.WorkItem, error) {
	if _, err := s.User(); err != nil {
		return nil, err
	}
	out := []model.WorkItem{}
	for _, it := range s.Workspace.WorkItems.Get() {
		if it.ClientID == clientID && it.Status == model.WorkStatusDone {
			out = append(out, it)
		}
	}
	return out, nil
}

func (b *billingService) AmountInWords(s *session.Session, invoiceID string) (*AmountWords, error) {
	if _, err := s.User(); err != nil {
		return nil, err
	}
	for _, inv := range s.Workspace.Invoices.Get() {
		if inv.ID == invoiceID {
			return &AmountWords{
				InvoiceID: inv.ID,
				Amount:    inv.Amount,
				Words:     util.AmountToKorean(inv.Amount),
			}, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func findWorkItem(items []model.WorkItem, id int) (*model.WorkItem, bool) {
	for i := range items {
		if items[i].ID == id {
			return &items[i], true
		}
	}
	return nil, false
}
