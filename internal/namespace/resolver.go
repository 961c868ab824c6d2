// Package namespace maps (user, dataset) pairs to storage keys so that each
// signed-in user's data never shares a key with another user's data.
package namespace

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Dataset 논리 데이터셋 식별자
type Dataset string

const (
	CompanyInfo Dataset = "COMPANY_INFO"
	Clients     Dataset = "CLIENTS"
	WorkItems   Dataset = "WORK_ITEMS"
	Invoices    Dataset = "INVOICES"
	Estimates   Dataset = "ESTIMATES"
	Units       Dataset = "UNITS"
	Categories  Dataset = "CATEGORIES"
	StampImage  Dataset = "STAMP_IMAGE"
)

const (
	userPrefix   = "USER_"
	anonPrefix   = "ANON_"
	systemPrefix = "SYSTEM_"
	markerSuffix = "@saved"
	fileExt      = ".json"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrMalformedKey   = errors.New("malformed storage key")
)

// All 모든 데이터셋 (로드 순서)
var All = []Dataset{CompanyInfo, Clients, WorkItems, Invoices, Estimates, Units, Categories, StampImage}

// Valid reports whether d is one of the fixed datasets.
func (d Dataset) Valid() bool {
	for _, ds := range All {
		if ds == d {
			return true
		}
	}
	return false
}

// ParseDataset accepts either the canonical name or its lower-case form.
func ParseDataset(name string) (Dataset, error) {
	// URL 경로에서는 work-items 처럼 하이픈을 쓴다
	d := Dataset(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return d, nil
}

// Resolver computes storage keys. The zero value is ready to use.
type Resolver struct{}

// Key returns the flat key used by string-keyed backends.
// An empty user resolves into the shared anonymous namespace.
func (Resolver) Key(user string, ds Dataset) string {
	if user == "" {
		return anonPrefix + string(ds)
	}
	return userPrefix + escape(user) + "_" + string(ds)
}

// MarkerKey is written next to every saved dataset and records that the
// user has saved it at least once, even if the value is now empty.
func (r Resolver) MarkerKey(user string, ds Dataset) string {
	return r.Key(user, ds) + markerSuffix
}

// SystemKey names a global, user-independent entry.
func (Resolver) SystemKey(name string) string {
	return systemPrefix + name
}

// FilePath returns the sharded relative path used by the file store.
func (Resolver) FilePath(user string, ds Dataset) string {
	if user == "" {
		return path.Join("anonymous", string(ds)+fileExt)
	}
	return path.Join("users", escape(user)+"_"+string(ds)+fileExt)
}

// Parsed is the decoded form of a flat key.
type Parsed struct {
	User    string
	Dataset Dataset
	Marker  bool
	System  string // set for SYSTEM_ keys only
}

// Parse inverts Key, MarkerKey and SystemKey.
func (Resolver) Parse(key string) (Parsed, error) {
	var p Parsed
	if strings.HasSuffix(key, markerSuffix) {
		p.Marker = true
		key = strings.TrimSuffix(key, markerSuffix)
	}

	switch {
	case strings.HasPrefix(key, systemPrefix):
		p.System = strings.TrimPrefix(key, systemPrefix)
		if p.System == "" || p.Marker {
			return Parsed{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
		}
		return p, nil
	case strings.HasPrefix(key, anonPrefix):
		p.Dataset = Dataset(strings.TrimPrefix(key, anonPrefix))
	case strings.HasPrefix(key, userPrefix):
		rest := strings.TrimPrefix(key, userPrefix)
		// escaped user names never contain '_', so the first one separates
		idx := strings.IndexByte(rest, '_')
		if idx <= 0 {
			return Parsed{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
		}
		user, err := unescape(rest[:idx])
		if err != nil {
			return Parsed{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
		}
		p.User = user
		p.Dataset = Dataset(rest[idx+1:])
	default:
		return Parsed{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}

	if !p.Dataset.Valid() {
		return Parsed{}, fmt.Errorf("%w: %q", ErrUnknownDataset, string(p.Dataset))
	}
	return p, nil
}

// escape percent-encodes '%', '_', path separators, '@' and control bytes.
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%', c == '_', c == '/', c == '\\', c == '@', c < 0x20, c == 0x7f:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescape(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", ErrMalformedKey
		}
		c, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", ErrMalformedKey
		}
		b.WriteByte(byte(c))
		i += 2
	}
	return b.String(), nil
}
