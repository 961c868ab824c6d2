package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Key(t *testing.T) {
	var r Resolver

	tests := []struct {
		name string
		user string
		ds   Dataset
		want string
	}{
		{"plain user", "kim", Clients, "USER_kim_CLIENTS"},
		{"korean user", "김철수", Invoices, "USER_김철수_INVOICES"},
		{"underscore escaped", "a_b", Units, "USER_a%5Fb_UNITS"},
		{"email", "kim@mail.com", StampImage, "USER_kim%40mail.com_STAMP_IMAGE"},
		{"anonymous", "", Categories, "ANON_CATEGORIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Key(tt.user, tt.ds))
		})
	}
}

func TestResolver_NoCollisions(t *testing.T) {
	var r Resolver
	users := []string{"a", "a_b", "a_WORK", "a%5Fb", "USER", "", "a/b", "a\\b", "a@saved", "kim"}

	seen := make(map[string]string)
	for _, u := range users {
		for _, ds := range All {
			for _, key := range []string{r.Key(u, ds), r.MarkerKey(u, ds), r.FilePath(u, ds)} {
				id := u + "|" + string(ds)
				if prev, ok := seen[key]; ok && prev != id {
					t.Fatalf("key %q produced by %q and %q", key, prev, id)
				}
				seen[key] = id
			}
		}
	}
}

func TestResolver_ParseRoundTrip(t *testing.T) {
	var r Resolver
	users := []string{"kim", "a_b", "박영희", "x%y", "a@b"}

	for _, u := range users {
		for _, ds := range All {
			p, err := r.Parse(r.Key(u, ds))
			require.NoError(t, err)
			assert.Equal(t, u, p.User)
			assert.Equal(t, ds, p.Dataset)
			assert.False(t, p.Marker)

			p, err = r.Parse(r.MarkerKey(u, ds))
			require.NoError(t, err)
			assert.True(t, p.Marker)
			assert.Equal(t, u, p.User)
		}
	}
}

func TestResolver_ParseErrors(t *testing.T) {
	var r Resolver

	tests := []struct {
		name string
		key  string
		err  error
	}{
		{"unknown prefix", "constructionApp_clients", ErrMalformedKey},
		{"missing user", "USER__CLIENTS", ErrMalformedKey},
		{"unknown dataset", "USER_kim_WORKERS", ErrUnknownDataset},
		{"bad escape", "USER_k%G1_CLIENTS", ErrMalformedKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Parse(tt.key)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestResolver_SystemKey(t *testing.T) {
	var r Resolver
	key := r.SystemKey("SECURITY_KEY_VERIFIED")
	assert.Equal(t, "SYSTEM_SECURITY_KEY_VERIFIED", key)

	p, err := r.Parse(key)
	require.NoError(t, err)
	assert.Equal(t, "SECURITY_KEY_VERIFIED", p.System)
}

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset("work_items")
	require.NoError(t, err)
	assert.Equal(t, WorkItems, ds)

	ds, err = ParseDataset(" work-items ")
	require.NoError(t, err)
	assert.Equal(t, WorkItems, ds)

	_, err = ParseDataset("materials")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}
