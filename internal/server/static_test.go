package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_ServesAppShell(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>collab</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	env := newTestEnv(t, true)
	srv := New(env.store, nil, Options{StaticDir: dir, Tokens: env.server.tokens, Flags: env.server.flags})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "collab")

	rec = get("/acme/boards/sprint")
	assert.Equal(t, http.StatusOK, rec.Code, "client-side routes fall back to the app shell")
	assert.Contains(t, rec.Body.String(), "collab")

	rec = get("/assets/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/api/missing", "/auth/missing", "/organizations/acme/missing"} {
		rec = get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"endpoint not found"}`, rec.Body.String(), path)
	}
}
