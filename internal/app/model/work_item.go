package model

type WorkStatus string // 작업 상태

const (
	WorkStatusPlanned    WorkStatus = "예정"  // 예정
	WorkStatusInProgress WorkStatus = "진행중" // 진행중
	WorkStatusDone       WorkStatus = "완료"  // 완료
	WorkStatusOnHold     WorkStatus = "보류"  // 보류
)

// Valid reports whether s is a known work status.
func (s WorkStatus) Valid() bool {
	switch s {
	case WorkStatusPlanned, WorkStatusInProgress, WorkStatusDone, WorkStatusOnHold:
		return true
	}
	return false
}

// WorkItem 작업 항목
type WorkItem struct {
	ID            int        `json:"id"`                 // 작업 항목 ID
	ClientID      int        `json:"clientId"`           // 건축주 ID
	ClientName    string     `json:"clientName"`         // 건축주명 (스냅샷)
	WorkplaceID   int        `json:"workplaceId"`        // 작업장 ID
	WorkplaceName string     `json:"workplaceName"`      // 작업장명 (스냅샷)
	ProjectName   string     `json:"projectName"`        // 프로젝트명
	Name          string     `json:"name"`               // 작업명
	Category      string     `json:"category"`           // 카테고리
	DefaultPrice  int64      `json:"defaultPrice"`       // 기본 단가
	Quantity      float64    `json:"quantity,omitempty"` // 수량
	Unit          string     `json:"unit"`               // 단위
	Description   string     `json:"description"`        // 세부 작업
	Status        WorkStatus `json:"status"`             // 상태
	Date          string     `json:"date"`               // 작업일 (YYYY-MM-DD)
	Notes         string     `json:"notes"`              // 비고
}
