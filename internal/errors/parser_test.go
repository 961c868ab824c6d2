package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "nil", err: nil, wantStatus: http.StatusInternalServerError, wantCode: InternalServerError},
		{name: "credentials", err: session.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: AuthInvalidCredentials},
		{name: "wrapped key expired", err: fmt.Errorf("submit: %w", session.ErrKeyExpired), wantStatus: http.StatusUnauthorized, wantCode: SecurityKeyExpired},
		{name: "malformed key", err: session.ErrKeyMalformed, wantStatus: http.StatusBadRequest, wantCode: SecurityKeyMalformed},
		{name: "invalid dataset", err: fmt.Errorf("%w: CLIENTS: duplicate id 1", dataset.ErrInvalidValue), wantStatus: http.StatusBadRequest, wantCode: DatasetInvalidValue},
		{name: "backup", err: fmt.Errorf("%w: missing data", service.ErrBackupFormat), wantStatus: http.StatusUnprocessableEntity, wantCode: ImportFormat},
		{name: "sheet", err: spreadsheet.ErrFormat, wantStatus: http.StatusUnprocessableEntity, wantCode: ImportFormat},
		{name: "duplicate key", err: errors.New("UNIQUE constraint failed: accounts.username"), wantStatus: http.StatusConflict, wantCode: AuthUsernameExists},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_ImportMessageNamesRow(t *testing.T) {
	err := fmt.Errorf("%w: row 3 column \"기본단가\": \"많음\" is not a number", spreadsheet.ErrFormat)
	info := ParseError(err)
	assert.Contains(t, info.Message, "row 3")
	assert.NotContains(t, info.Message, "boom")
}
