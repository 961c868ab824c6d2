package session

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrSecurityKeyRequired = errors.New("security key required")
	ErrKeyMalformed        = errors.New("security key malformed")
	ErrKeyInvalid          = errors.New("security key invalid")
	ErrKeyExpired          = errors.New("security key expired")
	ErrNoStoredKey         = errors.New("no stored security key")
	ErrInvalidTransition   = errors.New("invalid session transition")
	ErrSessionNotFound     = errors.New("session not found")
	ErrNotAuthenticated    = errors.New("session not authenticated")
)
