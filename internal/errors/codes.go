package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 사용자명/비밀번호
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // 토큰 만료
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 잘못된 토큰
	AuthSessionExpired     = "AUTH_SESSION_EXPIRED"     // 세션 없음/만료
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"     // 사용자명 중복
	AuthInvalidUsername    = "AUTH_INVALID_USERNAME"    // 잘못된 사용자명
	AuthPasswordTooShort   = "AUTH_PASSWORD_TOO_SHORT"  // 비밀번호 길이 부족
	AuthInvalidTransition  = "AUTH_INVALID_TRANSITION"  // 현재 상태에서 불가능한 요청

	// ==================== 권한 (AUTHZ_) ====================
	AuthzAdminRequired = "AUTHZ_ADMIN_REQUIRED" // 관리자 전용 기능

	// ==================== 보안키 (SECURITY_) ====================
	SecurityKeyRequired  = "SECURITY_KEY_REQUIRED"   // 관리자 보안키 인증 필요
	SecurityKeyMalformed = "SECURITY_KEY_MALFORMED"  // 보안키 파일 형식 오류
	SecurityKeyInvalid   = "SECURITY_KEY_INVALID"    // 유효하지 않은 보안키
	SecurityKeyExpired   = "SECURITY_KEY_EXPIRED"    // 만료된 보안키
	SecurityKeyNotStored = "SECURITY_KEY_NOT_STORED" // 저장된 보안키 없음

	// ==================== 데이터셋 (DATASET_) ====================
	DatasetUnknown      = "DATASET_UNKNOWN"       // 알 수 없는 데이터셋
	DatasetInvalidValue = "DATASET_INVALID_VALUE" // 데이터 형식/무결성 오류
	DatasetNotLoaded    = "DATASET_NOT_LOADED"    // 데이터를 아직 불러오지 않음

	// ==================== 청구/견적 (BILLING_) ====================
	BillingClientNotFound    = "BILLING_CLIENT_NOT_FOUND"    // 건축주 없음
	BillingInvoiceNotFound   = "BILLING_INVOICE_NOT_FOUND"   // 청구서 없음
	BillingEstimateNotFound  = "BILLING_ESTIMATE_NOT_FOUND"  // 견적서 없음
	BillingWorkItemNotFound  = "BILLING_WORK_ITEM_NOT_FOUND" // 작업 항목 없음
	BillingEmptyInvoice      = "BILLING_EMPTY_INVOICE"       // 청구 항목 없음
	BillingEstimateConverted = "BILLING_ESTIMATE_CONVERTED"  // 이미 전환된 견적서
	BillingInvalidDate       = "BILLING_INVALID_DATE"        // 잘못된 날짜

	// ==================== 가져오기 (IMPORT_) ====================
	ImportFormat      = "IMPORT_FORMAT"       // 파일 형식 오류
	ImportUnsupported = "IMPORT_UNSUPPORTED"  // 지원하지 않는 대상
	ImportFileMissing = "IMPORT_FILE_MISSING" // 업로드 파일 없음

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID

	// ==================== 서버 (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR" // 서버 오류
	InternalStorage     = "INTERNAL_STORAGE"      // 저장소 오류
)
