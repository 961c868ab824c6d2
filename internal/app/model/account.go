package model

import "time"

// AdminUsername 보안 키 인증이 추가로 필요한 관리자 계정
const AdminUsername = "admin"

// Account 로그인 자격 증명 (사용자 테이블)
type Account struct {
	Username     string     `gorm:"primaryKey;size:100" json:"username"` // 사용자명
	PasswordHash string     `gorm:"not null" json:"-"`                   // 비밀번호 해시 (bcrypt)
	DisplayName  string     `json:"displayName"`                         // 표시 이름
	CreatedAt    time.Time  `json:"createdAt"`                           // 생성 시각
	LastLogin    *time.Time `json:"lastLogin,omitempty"`                 // 마지막 로그인
}

func (Account) TableName() string {
	return "accounts"
}

// IsAdmin reports whether the account must pass the security key gate.
func (a *Account) IsAdmin() bool {
	return a.Username == AdminUsername
}
