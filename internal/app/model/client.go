package model

// Workplace 건축주의 작업장
type Workplace struct {
	ID      int    `json:"id"`      // 작업장 ID (건축주 내에서 고유)
	Name    string `json:"name"`    // 작업장명
	Address string `json:"address"` // 주소
	Project string `json:"project"` // 프로젝트명
}

// Client 건축주
//
// 청구 합계와 미수금은 저장하지 않는다. derived 패키지에서 청구서로부터 매번 계산한다.
type Client struct {
	ID         int         `json:"id"`         // 건축주 ID
	Name       string      `json:"name"`       // 이름
	Phone      string      `json:"phone"`      // 전화번호
	Mobile     string      `json:"mobile"`     // 휴대전화
	Email      string      `json:"email"`      // 이메일
	Address    string      `json:"address"`    // 주소
	Notes      string      `json:"notes"`      // 비고
	Workplaces []Workplace `json:"workplaces"` // 작업장 목록
	Projects   []string    `json:"projects"`   // 프로젝트 목록
}

// FindWorkplace returns the workplace with the given id.
func (c *Client) FindWorkplace(id int) (*Workplace, bool) {
	for i := range c.Workplaces {
		if c.Workplaces[i].ID == id {
			return &c.Workplaces[i], true
		}
	}
	return nil, false
}
