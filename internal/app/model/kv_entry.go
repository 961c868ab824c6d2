package model

import "time"

// KVEntry 키-값 저장소의 한 항목 (브라우저 localStorage 대응)
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:512" json:"key"` // 네임스페이스 키
	Value     string    `gorm:"type:text;not null" json:"value"`                 // JSON 직렬화 값
	UpdatedAt time.Time `json:"updated_at"`                                      // 마지막 저장 시각
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
