package devserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectLiveReloadAddsScriptToHTML(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	injectLiveReload(inner).ServeHTTP(rec, req)

	require.Contains(t, rec.Body.String(), `<script async src="/livereload.js"></script>`)
	require.True(t, strings.HasSuffix(strings.TrimSpace(rec.Body.String()), "</html>"))
}

func TestInjectLiveReloadPassesThroughNonHTML(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rec := httptest.NewRecorder()
	injectLiveReload(inner).ServeHTTP(rec, req)

	require.Equal(t, `{"ok":true}`, rec.Body.String())
}
