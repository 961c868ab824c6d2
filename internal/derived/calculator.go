// Package derived computes per-client aggregates from the raw datasets.
// Nothing is cached; every call rescans the invoice list.
package derived

import (
	"strings"

	"github.com/ikkim/geonseol-backend/internal/app/model"
)

// ClientSummary 건축주 목록 화면용 집계
type ClientSummary struct {
	ClientID     int    `json:"clientId"`
	Name         string `json:"name"`
	ProjectCount int    `json:"projectCount"`
	TotalBilled  int64  `json:"totalBilled"`
	Outstanding  int64  `json:"outstanding"`
	InvoiceCount int    `json:"invoiceCount"`
}

func findClient(clients []model.Client, clientID int) *model.Client {
	for i := range clients {
		if clients[i].ID == clientID {
			return &clients[i]
		}
	}
	return nil
}

// belongsTo matches by client id, or by name for legacy invoices.
func belongsTo(inv *model.Invoice, c *model.Client) bool {
	if inv.ClientID != nil && *inv.ClientID == c.ID {
		return true
	}
	name := strings.TrimSpace(c.Name)
	return name != "" && strings.TrimSpace(inv.Client) == name
}

// ProjectCount 프로젝트가 지정된 작업장 수
func ProjectCount(clients []model.Client, clientID int) int {
	c := findClient(clients, clientID)
	if c == nil {
		return 0
	}
	n := 0
	for _, wp := range c.Workplaces {
		if strings.TrimSpace(wp.Project) != "" {
			n++
		}
	}
	return n
}

// TotalBilled sums the amount of every invoice of the client.
func TotalBilled(clients []model.Client, invoices []model.Invoice, clientID int) int64 {
	c := findClient(clients, clientID)
	if c == nil {
		return 0
	}
	var sum int64
	for i := range invoices {
		if belongsTo(&invoices[i], c) {
			sum += invoices[i].Amount
		}
	}
	return sum
}

// Outstanding sums invoices of the client that are not yet paid.
func Outstanding(clients []model.Client, invoices []model.Invoice, clientID int) int64 {
	c := findClient(clients, clientID)
	if c == nil {
		return 0
	}
	var sum int64
	for i := range invoices {
		if belongsTo(&invoices[i], c) && invoices[i].Status.Outstanding() {
			sum += invoices[i].Amount
		}
	}
	return sum
}

// Summarize computes the summary of one client.
func Summarize(clients []model.Client, invoices []model.Invoice, clientID int) (ClientSummary, bool) {
	c := findClient(clients, clientID)
	if c == nil {
		return ClientSummary{}, false
	}
	s := ClientSummary{
		ClientID:     c.ID,
		Name:         c.Name,
		ProjectCount: ProjectCount(clients, clientID),
	}
	for i := range invoices {
		if !belongsTo(&invoices[i], c) {
			continue
		}
		s.InvoiceCount++
		s.TotalBilled += invoices[i].Amount
		if invoices[i].Status.Outstanding() {
			s.Outstanding += invoices[i].Amount
		}
	}
	return s, true
}

// Summaries returns one summary per client in client order.
func Summaries(clients []model.Client, invoices []model.Invoice) []ClientSummary {
	out := make([]ClientSummary, 0, len(clients))
	for _, c := range clients {
		s, _ := Summarize(clients, invoices, c.ID)
		out = append(out, s)
	}
	return out
}

// WorkspaceStats 대시보드 통계
type WorkspaceStats struct {
	ClientsCount       int   `json:"clientsCount"`
	WorkItemsCount     int   `json:"workItemsCount"`
	InvoicesCount      int   `json:"invoicesCount"`
	EstimatesCount     int   `json:"estimatesCount"`
	CompletedWorkItems int   `json:"completedWorkItems"`
	TotalInvoiceAmount int64 `json:"totalInvoiceAmount"`
	OutstandingAmount  int64 `json:"outstandingAmount"` // 미수금
	PaidAmount         int64 `json:"paidAmount"`        // 결제 완료 금액

	WorkItemsByStatus map[model.WorkStatus]int     `json:"workItemsByStatus"`
	InvoicesByStatus  map[model.InvoiceStatus]int  `json:"invoicesByStatus"`
	EstimatesByStatus map[model.EstimateStatus]int `json:"estimatesByStatus"`
}

// Stats counts records across the datasets of one user. The status maps
// only hold statuses that occur.
func Stats(clients []model.Client, items []model.WorkItem, invoices []model.Invoice, estimates []model.Estimate) WorkspaceStats {
	s := WorkspaceStats{
		ClientsCount:      len(clients),
		WorkItemsCount:    len(items),
		InvoicesCount:     len(invoices),
		EstimatesCount:    len(estimates),
		WorkItemsByStatus: make(map[model.WorkStatus]int),
		InvoicesByStatus:  make(map[model.InvoiceStatus]int),
		EstimatesByStatus: make(map[model.EstimateStatus]int),
	}
	for _, it := range items {
		s.WorkItemsByStatus[it.Status]++
		if it.Status == model.WorkStatusDone {
			s.CompletedWorkItems++
		}
	}
	for _, inv := range invoices {
		s.InvoicesByStatus[inv.Status]++
		s.TotalInvoiceAmount += inv.Amount
		switch {
		case inv.Status == model.InvoiceStatusPaid:
			s.PaidAmount += inv.Amount
		case inv.Status.Outstanding():
			s.OutstandingAmount += inv.Amount
		}
	}
	for _, est := range estimates {
		s.EstimatesByStatus[est.Status]++
	}
	return s
}
