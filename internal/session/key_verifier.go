package session

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkim/geonseol-backend/internal/app/model"
)

// 예전 발급분과의 호환을 위해 허용하는 고정 키 ID
var allowedKeyIDs = map[string]bool{
	"CMS-MASTER-2024-001":      true,
	"CMS-ADMIN-2024-UNIVERSAL": true,
	"CMS-ADMIN-2024-001":       true,
	"CMS-ADMIN-2025-UNIVERSAL": true,
}

var keyIDPattern = regexp.MustCompile(`^CMS-[A-Z가-힣0-9-]+-(2024|2025)-\d{3}$`)

const keyIssuer = "geonseol-keygen"

// KeyClaims are the signed claims inside SecurityKey.Signature. They repeat
// the artifact fields so a tampered artifact no longer matches.
type KeyClaims struct {
	KeyID      string `json:"keyId"`
	IssuedTo   string `json:"issuedTo"`
	IssuedDate string `json:"issuedDate"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	jwt.RegisteredClaims
}

// ValidKeyID reports whether id is an allowed literal or matches the
// CMS-<token>-<year>-<NNN> pattern.
func ValidKeyID(id string) bool {
	return allowedKeyIDs[id] || keyIDPattern.MatchString(id)
}

// KeyVerifier checks admin security key artifacts against an Ed25519 public key.
type KeyVerifier struct {
	publicKey ed25519.PublicKey
	now       func() time.Time
}

func NewKeyVerifier(publicKey ed25519.PublicKey) *KeyVerifier {
	return &KeyVerifier{publicKey: publicKey, now: time.Now}
}

// Parse decodes and verifies a raw artifact.
func (v *KeyVerifier) Parse(raw []byte) (*model.SecurityKey, error) {
	var key model.SecurityKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMalformed, err)
	}
	if err := v.Verify(&key); err != nil {
		return nil, err
	}
	return &key, nil
}

// Verify runs the artifact checks in order: required fields, key id,
// expiry date, then the signature and its claims.
func (v *KeyVerifier) Verify(key *model.SecurityKey) error {
	var missing []string
	for _, f := range [][2]string{
		{"keyId", key.KeyID},
		{"issuedTo", key.IssuedTo},
		{"issuedDate", key.IssuedDate},
		{"signature", key.Signature},
	} {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrKeyMalformed, strings.Join(missing, ", "))
	}

	if !ValidKeyID(key.KeyID) {
		return fmt.Errorf("%w: key id %q not recognised", ErrKeyInvalid, key.KeyID)
	}

	if key.ExpiryDate != "" {
		expiry, err := parseKeyDate(key.ExpiryDate)
		if err != nil {
			return fmt.Errorf("%w: expiry date %q", ErrKeyMalformed, key.ExpiryDate)
		}
		if expiry.Before(v.now()) {
			return fmt.Errorf("%w: expired on %s", ErrKeyExpired, key.ExpiryDate)
		}
	}

	if len(v.publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: verification key not configured", ErrKeyInvalid)
	}

	claims := &KeyClaims{}
	_, err := jwt.ParseWithClaims(key.Signature, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.publicKey, nil
	}, jwt.WithIssuer(keyIssuer), jwt.WithTimeFunc(v.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: signature expired", ErrKeyExpired)
		}
		return fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	}

	if claims.KeyID != key.KeyID || claims.IssuedTo != key.IssuedTo ||
		claims.IssuedDate != key.IssuedDate || claims.ExpiryDate != key.ExpiryDate {
		return fmt.Errorf("%w: signed claims do not match artifact", ErrKeyInvalid)
	}
	return nil
}

// SignSecurityKey fills key.Signature with an EdDSA JWS over its fields.
func SignSecurityKey(privateKey ed25519.PrivateKey, key *model.SecurityKey) error {
	claims := KeyClaims{
		KeyID:      key.KeyID,
		IssuedTo:   key.IssuedTo,
		IssuedDate: key.IssuedDate,
		ExpiryDate: key.ExpiryDate,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   keyIssuer,
			Subject:  key.IssuedTo,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if key.ExpiryDate != "" {
		expiry, err := parseKeyDate(key.ExpiryDate)
		if err != nil {
			return fmt.Errorf("%w: expiry date %q", ErrKeyMalformed, key.ExpiryDate)
		}
		claims.ExpiresAt = jwt.NewNumericDate(expiry)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign security key: %w", err)
	}
	key.Signature = signed
	return nil
}

// LoadPublicKey reads the verification key from a base64 string or, when
// that is empty, from a PEM file.
func LoadPublicKey(encoded, path string) (ed25519.PublicKey, error) {
	if encoded != "" {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 public key: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
		}
		return ed25519.PublicKey(raw), nil
	}
	if path == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	key, err := jwt.ParseEdPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not Ed25519")
	}
	return pub, nil
}

func parseKeyDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
