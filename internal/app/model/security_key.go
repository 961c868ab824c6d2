package model

// SecurityKey 관리자 보안 키 파일
//
// Signature 는 발급자의 Ed25519 개인키로 서명된 compact JWS 이다.
type SecurityKey struct {
	KeyID      string `json:"keyId"`                // 키 ID (CMS-...-<연도>-<3자리>)
	IssuedTo   string `json:"issuedTo"`             // 발급 대상
	IssuedDate string `json:"issuedDate"`           // 발급일
	ExpiryDate string `json:"expiryDate,omitempty"` // 만료일 (선택)
	Signature  string `json:"signature"`            // 서명
}
