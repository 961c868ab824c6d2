package model

// CompanyInfo 건축업체 정보 (사용자당 하나)
type CompanyInfo struct {
	Name           string `json:"name"`           // 상호
	BusinessNumber string `json:"businessNumber"` // 사업자등록번호
	Representative string `json:"representative"` // 대표자
	Phone          string `json:"phone"`          // 전화번호
	Email          string `json:"email"`          // 이메일
	Address        string `json:"address"`        // 주소
	BankAccount    string `json:"bankAccount"`    // 입금 계좌
	AccountHolder  string `json:"accountHolder"`  // 예금주
}
