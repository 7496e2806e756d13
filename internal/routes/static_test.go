package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStaticFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app shell</html>"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log('app')"), 0o644))
	return dir
}

func TestStaticFallback_ServesRealFiles(t *testing.T) {
	t.Parallel()

	handler := StaticFallback(writeStaticFixture(t))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log('app')", w.Body.String())
}

func TestStaticFallback_ClientRoutesGetIndex(t *testing.T) {
	t.Parallel()

	handler := StaticFallback(writeStaticFixture(t))

	// Client-side routes have no file on disk; a reload must get the app
	// shell, not a 404.
	for _, path := range []string{"/", "/chat/42", "/settings/profile", "/assets"} {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, w.Code, "path=%s", path)
		assert.Equal(t, "<html>app shell</html>", w.Body.String(), "path=%s", path)
	}
}

func TestStaticFallback_NoPathEscape(t *testing.T) {
	t.Parallel()

	handler := StaticFallback(writeStaticFixture(t))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.URL.Path = "/../secret"
	handler(w, r)

	// The cleaned path stays inside the static dir, so the traversal lands
	// on the index fallback.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>app shell</html>", w.Body.String())
}
