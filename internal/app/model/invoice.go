package model

import "math"

type InvoiceStatus string // 청구서 상태

const (
	InvoiceStatusPending InvoiceStatus = "발송대기" // 발송 대기
	InvoiceStatusSent    InvoiceStatus = "발송됨"  // 발송됨
	InvoiceStatusUnpaid  InvoiceStatus = "미결제"  // 미결제
	InvoiceStatusPaid    InvoiceStatus = "결제완료" // 결제 완료
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusSent, InvoiceStatusUnpaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// Outstanding reports whether an invoice in this status still counts as unpaid.
func (s InvoiceStatus) Outstanding() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusSent || s == InvoiceStatusUnpaid
}

// InvoiceLine 청구서 작업 항목
type InvoiceLine struct {
	Name        string  `json:"name"`        // 작업명
	Quantity    float64 `json:"quantity"`    // 수량
	UnitPrice   int64   `json:"unitPrice"`   // 단가
	Total       int64   `json:"total"`       // 금액 (수량 x 단가)
	Description string  `json:"description"` // 세부 내용
	Category    string  `json:"category"`    // 카테고리
	Notes       string  `json:"notes"`       // 비고
}

// Invoice 청구서
type Invoice struct {
	ID               string        `json:"id"`                 // 청구서 번호 (INV-<연도>-<순번>)
	ClientID         *int          `json:"clientId,omitempty"` // 건축주 ID (구 데이터에는 없음)
	Client           string        `json:"client"`             // 건축주명 (스냅샷)
	Project          string        `json:"project"`            // 프로젝트명
	WorkplaceAddress string        `json:"workplaceAddress"`   // 작업장 주소
	Amount           int64         `json:"amount"`             // 청구 금액 (항목 금액 합계)
	Status           InvoiceStatus `json:"status"`             // 상태
	Date             string        `json:"date"`               // 발행일
	DueDate          string        `json:"dueDate"`            // 지불 기한
	WorkItems        []InvoiceLine `json:"workItems"`          // 작업 항목
}

// LineTotal 수량 x 단가 (원 단위 반올림)
func LineTotal(quantity float64, unitPrice int64) int64 {
	return int64(math.Round(quantity * float64(unitPrice)))
}

// LinesTotal returns the sum of the line totals.
func (inv *Invoice) LinesTotal() int64 {
	var sum int64
	for _, l := range inv.WorkItems {
		sum += l.Total
	}
	return sum
}

// Recalculate recomputes every line total and the invoice amount.
func (inv *Invoice) Recalculate() {
	for i := range inv.WorkItems {
		inv.WorkItems[i].Total = LineTotal(inv.WorkItems[i].Quantity, inv.WorkItems[i].UnitPrice)
	}
	inv.Amount = inv.LinesTotal()
}
