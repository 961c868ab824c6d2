package dataset

import (
	"fmt"
	"strings"

	"github.com/ikkim/geonseol-backend/internal/app/model"
)

// BaseCategories 항상 포함되어야 하는 기본 작업 카테고리 (표시 순서)
var BaseCategories = []string{"토목공사", "구조공사", "철거공사", "마감공사", "설비공사", "기타"}

// BaseUnits 항상 포함되어야 하는 기본 단위
var BaseUnits = []string{"식", "㎡", "개", "톤", "m", "kg", "회", "일"}

// DefaultCompanyInfo 첫 로드 시 사용자명으로 상호를 채운다
func DefaultCompanyInfo(user string) model.CompanyInfo {
	return model.CompanyInfo{Name: user}
}

// WithBase returns base in canonical order followed by the custom entries
// of stored in their stored order. Blank and duplicate entries are dropped.
func WithBase(base, stored []string) []string {
	out := make([]string, 0, len(base)+len(stored))
	seen := make(map[string]bool, len(base)+len(stored))
	for _, b := range base {
		out = append(out, b)
		seen[b] = true
	}
	for _, s := range stored {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		out = append(out, s)
		seen[s] = true
	}
	return out
}

func emptySlice[E any](v []E) bool { return len(v) == 0 }

func validateClients(clients []model.Client) error {
	seen := make(map[int]bool, len(clients))
	for _, c := range clients {
		if seen[c.ID] {
			return fmt.Errorf("duplicate client id %d", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func validateWorkItems(items []model.WorkItem) error {
	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return fmt.Errorf("duplicate work item id %d", it.ID)
		}
		seen[it.ID] = true
		if it.Status != "" && !it.Status.Valid() {
			return fmt.Errorf("work item %d: unknown status %q", it.ID, it.Status)
		}
	}
	return nil
}

func validateInvoices(invoices []model.Invoice) error {
	seen := make(map[string]bool, len(invoices))
	for _, inv := range invoices {
		if inv.ID == "" {
			return fmt.Errorf("invoice without id")
		}
		if seen[inv.ID] {
			return fmt.Errorf("duplicate invoice id %s", inv.ID)
		}
		seen[inv.ID] = true
		if inv.Status != "" && !inv.Status.Valid() {
			return fmt.Errorf("invoice %s: unknown status %q", inv.ID, inv.Status)
		}
		if len(inv.WorkItems) > 0 && inv.Amount != inv.LinesTotal() {
			return fmt.Errorf("invoice %s: amount %d does not match line totals %d", inv.ID, inv.Amount, inv.LinesTotal())
		}
	}
	return nil
}

func validateEstimates(estimates []model.Estimate) error {
	seen := make(map[string]bool, len(estimates))
	for _, est := range estimates {
		if est.ID == "" {
			return fmt.Errorf("estimate without id")
		}
		if seen[est.ID] {
			return fmt.Errorf("duplicate estimate id %s", est.ID)
		}
		seen[est.ID] = true
		if est.Status != "" && !est.Status.Valid() {
			return fmt.Errorf("estimate %s: unknown status %q", est.ID, est.Status)
		}
		if !est.Consistent() {
			return fmt.Errorf("estimate %s: subtotal, tax and total are inconsistent", est.ID)
		}
	}
	return nil
}
