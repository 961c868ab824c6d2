package model

import "math"

type EstimateStatus string // 견적서 상태

const (
	EstimateStatusDraft    EstimateStatus = "draft"    // 작성중
	EstimateStatusSent     EstimateStatus = "sent"     // 발송됨
	EstimateStatusApproved EstimateStatus = "approved" // 승인됨
	EstimateStatusRejected EstimateStatus = "rejected" // 거절됨
	EstimateStatusExpired  EstimateStatus = "expired"  // 만료됨
)

// Valid reports whether s is a known estimate status.
func (s EstimateStatus) Valid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSent, EstimateStatusApproved, EstimateStatusRejected, EstimateStatusExpired:
		return true
	}
	return false
}

// EstimateItem 견적 항목
type EstimateItem struct {
	Category    string  `json:"category"`    // 카테고리
	Name        string  `json:"name"`        // 항목명
	Description string  `json:"description"` // 세부 내용
	Quantity    float64 `json:"quantity"`    // 수량
	Unit        string  `json:"unit"`        // 단위
	UnitPrice   int64   `json:"unitPrice"`   // 단가
	TotalPrice  int64   `json:"totalPrice"`  // 금액
	Notes       string  `json:"notes"`       // 비고
}

// Estimate 견적서
type Estimate struct {
	ID               string         `json:"id"`                         // 견적 번호 (EST-<연도>-<순번>)
	ClientID         int            `json:"clientId"`                   // 건축주 ID
	ClientName       string         `json:"clientName"`                 // 건축주명
	WorkplaceID      int            `json:"workplaceId,omitempty"`      // 작업장 ID
	WorkplaceName    string         `json:"workplaceName,omitempty"`    // 작업장명
	WorkplaceAddress string         `json:"workplaceAddress,omitempty"` // 작업장 주소
	ProjectName      string         `json:"projectName"`                // 프로젝트명
	Title            string         `json:"title,omitempty"`            // 제목
	Date             string         `json:"date"`                       // 작성일
	ValidUntil       string         `json:"validUntil"`                 // 유효기간
	Status           EstimateStatus `json:"status"`                     // 상태
	Items            []EstimateItem `json:"items"`                      // 견적 항목
	Subtotal         int64          `json:"subtotal"`                   // 공급가액
	Tax              int64          `json:"tax"`                        // 부가세 (공급가액의 10%, 원 단위 절사)
	Total            int64          `json:"total"`                      // 합계
	Notes            string         `json:"notes"`                      // 비고
	Terms            string         `json:"terms"`                      // 계약 조건
}

// TaxRate 부가세율
const TaxRate = 0.1

// EstimateTax 공급가액의 10%, 원 단위 절사
func EstimateTax(subtotal int64) int64 {
	return int64(math.Floor(float64(subtotal) * TaxRate))
}

// Recalculate recomputes item totals, subtotal, tax and total.
func (e *Estimate) Recalculate() {
	var subtotal int64
	for i := range e.Items {
		e.Items[i].TotalPrice = LineTotal(e.Items[i].Quantity, e.Items[i].UnitPrice)
		subtotal += e.Items[i].TotalPrice
	}
	e.Subtotal = subtotal
	e.Tax = EstimateTax(subtotal)
	e.Total = e.Subtotal + e.Tax
}

// Consistent reports whether the stored totals match the items.
func (e *Estimate) Consistent() bool {
	var subtotal int64
	for _, it := range e.Items {
		subtotal += it.TotalPrice
	}
	return e.Subtotal == subtotal && e.Tax == EstimateTax(subtotal) && e.Total == e.Subtotal+e.Tax
}
