package model

import (
	"encoding/json"
	"time"
)

// Backup 백업 파일 형식
type Backup struct {
	Timestamp time.Time                  `json:"timestamp"` // 백업 시각
	Data      map[string]json.RawMessage `json:"data"`      // 데이터셋 이름 -> 값
}
