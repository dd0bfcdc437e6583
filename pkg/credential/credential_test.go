package credential_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helalist/hela/pkg/credential"
)

func TestStatic(t *testing.T) {
	token, ok := credential.Static("abc").Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = credential.Static("").Token()
	assert.False(t, ok)

	_, ok = credential.Static("   ").Token()
	assert.False(t, ok)
}

func TestChain(t *testing.T) {
	testCases := []struct {
		name      string
		providers []credential.Provider
		expected  string
		ok        bool
	}{
		{"empty", nil, "", false},
		{"nil provider skipped", []credential.Provider{nil, credential.Static("b")}, "b", true},
		{"first wins", []credential.Provider{credential.Static("a"), credential.Static("b")}, "a", true},
		{"absent falls through", []credential.Provider{credential.Static(""), credential.Static("b")}, "b", true},
		{"all absent", []credential.Provider{credential.Static(""), credential.Static("")}, "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, ok := credential.Chain(tc.providers...).Token()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, token)
		})
	}
}

func TestAuthorize(t *testing.T) {
	testCases := []struct {
		name     string
		provider credential.Provider
		existing string
		expected string
	}{
		{"token set", credential.Static("tok"), "", "Bearer tok"},
		{"token overrides existing", credential.Static("tok"), "Basic Zm9vOmJhcg==", "Bearer tok"},
		{"no token, no header", credential.Static(""), "", ""},
		{"no token keeps existing", credential.Static(""), "Basic Zm9vOmJhcg==", "Basic Zm9vOmJhcg=="},
		{"nil provider", nil, "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.existing != "" {
				h.Set("authorization", tc.existing)
			}
			credential.Authorize(h, tc.provider)
			assert.Equal(t, tc.expected, h.Get("Authorization"))
			if tc.expected == "" {
				_, present := h["Authorization"]
				assert.False(t, present, "authorization header must be omitted, not sent empty")
			}
		})
	}
}

func TestStore(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "credentials.toml")
	store := credential.NewStore(path)
	r.Equal(path, store.Path())

	_, ok := store.Token()
	r.False(ok)
	_, err := store.Load()
	r.ErrorIs(err, credential.ErrNotLoggedIn)

	r.NoError(store.Save(credential.Credentials{Server: "http://drive.local", Username: "alice", Token: "t1"}))
	token, ok := store.Token()
	r.True(ok)
	r.Equal("t1", token)

	info, err := os.Stat(path)
	r.NoError(err)
	r.Equal(os.FileMode(0o600), info.Mode().Perm())

	// the token is read fresh on every call
	r.NoError(store.Save(credential.Credentials{Token: "t2"}))
	token, ok = store.Token()
	r.True(ok)
	r.Equal("t2", token)

	creds, err := store.Load()
	r.NoError(err)
	r.Equal("", creds.Username)

	r.NoError(store.Clear())
	_, ok = store.Token()
	r.False(ok)
	r.NoError(store.Clear())
}

func TestStoreInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	require.NoError(t, os.WriteFile(path, []byte("token = "), 0o600))

	store := credential.NewStore(path)
	_, ok := store.Token()
	assert.False(t, ok)
	_, err := store.Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, credential.ErrNotLoggedIn)
}

func TestStoreEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	require.NoError(t, os.WriteFile(path, []byte("server = 'http://drive.local'\ntoken = ''\n"), 0o600))

	_, ok := credential.NewStore(path).Token()
	assert.False(t, ok)
}

func TestNewStoreDefaultPath(t *testing.T) {
	assert.Equal(t, credential.DefaultPath(), credential.NewStore("").Path())
	assert.Equal(t, "credentials.toml", filepath.Base(credential.DefaultPath()))
}

func TestStoreConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	store := credential.NewStore(path)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Save(credential.Credentials{Token: fmt.Sprintf("token-%d", i)}))
		}()
	}
	wg.Wait()

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Regexp(t, `^token-[0-7]$`, creds.Token)
	assert.FileExists(t, path+".lock")
}
