package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readme = "hello drive"

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "success", "data": data})
}

func newDriveServer(t *testing.T) *httptest.Server {
	t.Helper()
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "pw" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":401,"message":"wrong password"}`))
			return
		}
		writeEnvelope(w, map[string]any{"token": "tok-1", "user": map[string]any{"username": "alice"}})
	})
	mux.HandleFunc("POST /api/user/logout", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("logged out"))
	})
	mux.HandleFunc("GET /api/user/get", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeEnvelope(w, map[string]any{"username": "alice", "identity": 1, "base_path": "/"})
	})
	mux.HandleFunc("GET /api/fs/list/docs", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeEnvelope(w, map[string]any{
			"content": []map[string]any{
				{"name": "readme.txt", "size": len(readme), "is_dir": false},
				{"name": "photos", "is_dir": true},
			},
			"total": 2,
		})
	})
	mux.HandleFunc("GET /api/fs/download/docs/readme.txt", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(readme)))
		_, _ = w.Write([]byte(readme))
	})
	mux.HandleFunc("GET /api/storage/all", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"mount_path":"/local","driver":"Local"}]`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

type harness struct {
	t       *testing.T
	server  string
	credsFn string
	// stderr of the last run
	stderr string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:       t,
		server:  newDriveServer(t).URL,
		credsFn: filepath.Join(t.TempDir(), "credentials.toml"),
	}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	viper.Reset()
	h.t.Cleanup(viper.Reset)

	rootCMD, err := GetRootCommand()
	require.NoError(h.t, err)
	var out, errOut bytes.Buffer
	rootCMD.SetOut(&out)
	rootCMD.SetErr(&errOut)
	rootCMD.SetIn(strings.NewReader(stdin))
	rootCMD.SetArgs(append([]string{"--server", h.server, "--credentials-file", h.credsFn}, args...))
	err = rootCMD.ExecuteContext(context.Background())
	h.stderr = errOut.String()
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	_, err := h.run("", "login", "alice", "--password", "pw")
	require.NoError(h.t, err)
}

func TestLoginStoresToken(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("pw\n", "login", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as alice")

	stored, err := os.ReadFile(h.credsFn)
	require.NoError(t, err)
	assert.Contains(t, string(stored), "tok-1")
	assert.Contains(t, string(stored), "alice")
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "login", "alice", "-p", "nope")
	require.ErrorContains(t, err, "wrong password")
	assert.NoFileExists(t, h.credsFn)
}

func TestWhoamiQuery(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "whoami", "--query", ".username + \":\" + .role")
	require.NoError(t, err)
	assert.Equal(t, "alice:general\n", out)
}

func TestUnauthorizedCall(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "whoami")
	assert.ErrorContains(t, err, "HTTP 401")
}

func TestTokenFlagOverridesStore(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "--token", "tok-1", "whoami", "-q", ".username")
	require.NoError(t, err)
	assert.Equal(t, "alice\n", out)
}

func TestListTable(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "fs", "ls", "/docs", "-o", "table")
	require.NoError(t, err)
	for _, s := range []string{"readme.txt", "11 B", "photos", "dir"} {
		assert.Contains(t, out, s)
	}
}

func TestDownloadToFile(t *testing.T) {
	h := newHarness(t)
	h.login()
	dest := filepath.Join(t.TempDir(), "readme.txt")

	_, err := h.run("", "download", "--quiet", "/docs/readme.txt", dest)
	require.NoError(t, err)
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, readme, string(content))

	_, err = h.run("", "download", "--quiet", "/docs/readme.txt", dest)
	assert.ErrorContains(t, err, "already exists")

	_, err = h.run("", "download", "--quiet", "--force", "/docs/readme.txt", dest)
	assert.NoError(t, err)
}

func TestDownloadToStdout(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "download", "/docs/readme.txt", "-")
	require.NoError(t, err)
	assert.Equal(t, readme, out)
}

func TestDownloadManifestFromStdin(t *testing.T) {
	h := newHarness(t)
	h.login()
	dir := t.TempDir()
	manifest := "/docs/readme.txt " + filepath.Join(dir, "a.txt") + "\n/docs/readme.txt " + filepath.Join(dir, "b.txt") + "\n"

	_, err := h.run(manifest, "download", "--quiet", "--manifest", "-")
	require.NoError(t, err)
	for _, name := range []string{"a.txt", "b.txt"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, readme, string(content))
	}
}

func TestDownloadManifestProgress(t *testing.T) {
	h := newHarness(t)
	h.login()
	dir := t.TempDir()
	manifest := "/docs/readme.txt " + filepath.Join(dir, "one.txt") + "\n/docs/readme.txt " + filepath.Join(dir, "two.txt") + "\n"

	_, err := h.run(manifest, "download", "--concurrency", "2", "--manifest", "-")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(h.stderr, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.ElementsMatch(t, []string{"one.txt", "two.txt"}, []string{
		strings.Fields(lines[0])[0],
		strings.Fields(lines[1])[0],
	})
	assert.NotContains(t, h.stderr, "\r")
}

func TestDownloadMissingFile(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "download", "--quiet", "/docs/missing.txt", filepath.Join(t.TempDir(), "x"))
	assert.ErrorContains(t, err, "HTTP error! status: 404")
}

func TestRawRequest(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "request", "get", "/api/storage/all", "-q", ".[0].mount_path")
	require.NoError(t, err)
	assert.Equal(t, "/local\n", out)
}

func TestLogoutClearsToken(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")
	assert.NoFileExists(t, h.credsFn)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hela Version")
}
