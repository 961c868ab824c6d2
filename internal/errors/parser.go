package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/spreadsheet"
	"github.com/ikkim/geonseol-backend/pkg/util"
	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int    // HTTP 상태 코드
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

type mapping struct {
	target error
	info   ErrorInfo
}

// 서비스 계층 에러 -> 응답. 위에서부터 먼저 일치하는 항목을 사용
var mappings = []mapping{
	// 인증
	{session.ErrInvalidCredentials, ErrorInfo{http.StatusUnauthorized, AuthInvalidCredentials, "사용자명 또는 비밀번호가 올바르지 않습니다"}},
	{session.ErrNotAuthenticated, ErrorInfo{http.StatusUnauthorized, AuthUnauthorized, "로그인이 필요합니다"}},
	{session.ErrSessionNotFound, ErrorInfo{http.StatusUnauthorized, AuthSessionExpired, "세션이 만료되었습니다. 다시 로그인해주세요"}},
	{session.ErrInvalidTransition, ErrorInfo{http.StatusConflict, AuthInvalidTransition, "현재 로그인 상태에서는 처리할 수 없는 요청입니다"}},
	{service.ErrUsernameTaken, ErrorInfo{http.StatusConflict, AuthUsernameExists, "이미 사용 중인 사용자명입니다"}},
	{service.ErrInvalidUsername, ErrorInfo{http.StatusBadRequest, AuthInvalidUsername, "사용자명을 입력해주세요"}},
	{util.ErrPasswordTooShort, ErrorInfo{http.StatusBadRequest, AuthPasswordTooShort, "비밀번호는 4자 이상이어야 합니다"}},
	{util.ErrExpiredToken, ErrorInfo{http.StatusUnauthorized, AuthTokenExpired, "로그인이 만료되었습니다. 다시 로그인해주세요"}},
	{util.ErrInvalidToken, ErrorInfo{http.StatusUnauthorized, AuthTokenInvalid, "유효하지 않은 인증 정보입니다"}},

	// 보안키
	{session.ErrSecurityKeyRequired, ErrorInfo{http.StatusUnauthorized, SecurityKeyRequired, "관리자 보안키 인증이 필요합니다"}},
	{session.ErrKeyExpired, ErrorInfo{http.StatusUnauthorized, SecurityKeyExpired, "보안키가 만료되었습니다"}},
	{session.ErrKeyMalformed, ErrorInfo{http.StatusBadRequest, SecurityKeyMalformed, "보안키 파일 형식이 올바르지 않습니다"}},
	{session.ErrKeyInvalid, ErrorInfo{http.StatusUnauthorized, SecurityKeyInvalid, "유효하지 않은 보안키입니다"}},
	{session.ErrNoStoredKey, ErrorInfo{http.StatusNotFound, SecurityKeyNotStored, "저장된 보안키가 없습니다"}},

	// 데이터셋
	{namespace.ErrUnknownDataset, ErrorInfo{http.StatusNotFound, DatasetUnknown, "알 수 없는 데이터입니다"}},
	{dataset.ErrUnknownTarget, ErrorInfo{http.StatusNotFound, DatasetUnknown, "알 수 없는 데이터입니다"}},
	{dataset.ErrInvalidValue, ErrorInfo{http.StatusBadRequest, DatasetInvalidValue, "데이터 형식이 올바르지 않습니다"}},
	{dataset.ErrNotLoaded, ErrorInfo{http.StatusConflict, DatasetNotLoaded, "데이터를 불러오는 중입니다. 잠시 후 다시 시도해주세요"}},

	// 청구/견적
	{service.ErrClientNotFound, ErrorInfo{http.StatusNotFound, BillingClientNotFound, "건축주를 찾을 수 없습니다"}},
	{service.ErrInvoiceNotFound, ErrorInfo{http.StatusNotFound, BillingInvoiceNotFound, "청구서를 찾을 수 없습니다"}},
	{service.ErrEstimateNotFound, ErrorInfo{http.StatusNotFound, BillingEstimateNotFound, "견적서를 찾을 수 없습니다"}},
	{service.ErrWorkItemNotFound, ErrorInfo{http.StatusNotFound, BillingWorkItemNotFound, "작업 항목을 찾을 수 없습니다"}},
	{service.ErrEmptyInvoice, ErrorInfo{http.StatusBadRequest, BillingEmptyInvoice, "청구할 작업 항목을 추가해주세요"}},
	{service.ErrEstimateConverted, ErrorInfo{http.StatusConflict, BillingEstimateConverted, "이미 작업 항목으로 전환된 견적서입니다"}},
	{service.ErrInvalidDate, ErrorInfo{http.StatusBadRequest, BillingInvalidDate, "날짜는 YYYY-MM-DD 형식이어야 합니다"}},

	// 가져오기
	{service.ErrBackupFormat, ErrorInfo{http.StatusUnprocessableEntity, ImportFormat, "올바르지 않은 백업 파일 형식입니다"}},
	{spreadsheet.ErrFormat, ErrorInfo{http.StatusUnprocessableEntity, ImportFormat, "엑셀 파일 형식이 올바르지 않습니다"}},
	{service.ErrUnsupportedSheet, ErrorInfo{http.StatusNotFound, ImportUnsupported, "지원하지 않는 엑셀 대상입니다"}},

	{gorm.ErrRecordNotFound, ErrorInfo{http.StatusNotFound, ValidationInvalidID, "요청한 정보를 찾을 수 없습니다"}},
}

// ParseError 에러를 파싱하여 상태 코드, 에러 코드, 한글 메시지로 변환
// 내부 에러의 세부 내용은 노출하지 않는다
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{http.StatusInternalServerError, InternalServerError, "서버 오류가 발생했습니다"}
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			info := m.info
			// 가져오기 오류는 몇 번째 행인지 알려준다
			if info.Code == ImportFormat || info.Code == DatasetInvalidValue {
				info.Message = info.Message + ": " + detail(err)
			}
			return info
		}
	}

	// 동시 가입 등으로 인한 PK 중복
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint") {
		return ErrorInfo{http.StatusConflict, AuthUsernameExists, "이미 사용 중인 사용자명입니다"}
	}

	return ErrorInfo{http.StatusInternalServerError, InternalServerError, "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"}
}

// detail 센티넬 에러 접두어를 뗀 나머지 설명
func detail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
