package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sethvargo/go-diceware/diceware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func randomHost(t *testing.T) string {
	words, err := diceware.Generate(3)
	require.NoError(t, err)
	return strings.Join(words, "-") + ".example.com"
}

func TestRedirectPreservesHostPathQuery(t *testing.T) {
	rd := NewRedirector(zaptest.NewLogger(t), 443)

	for i := 0; i < 10; i++ {
		host := randomHost(t)
		req := httptest.NewRequest(http.MethodGet, "http://"+host+"/some/path?a=1&b=two", nil)
		w := httptest.NewRecorder()

		rd.server.Handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusMovedPermanently, w.Code)
		require.Equal(t, "https://"+host+"/some/path?a=1&b=two", w.Header().Get("Location"))
	}
}

func TestRedirectAnyMethod(t *testing.T) {
	rd := NewRedirector(zaptest.NewLogger(t), 443)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "http://alias.example.com/", nil)
		w := httptest.NewRecorder()

		rd.server.Handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusMovedPermanently, w.Code)
		require.Equal(t, "https://alias.example.com/", w.Header().Get("Location"))
	}
}

func TestRedirectNonStandardSecurePort(t *testing.T) {
	rd := NewRedirector(zaptest.NewLogger(t), 8443)

	req := httptest.NewRequest(http.MethodGet, "http://example.com:8080/x?y=z", nil)
	w := httptest.NewRecorder()
	rd.server.Handler.ServeHTTP(w, req)
	require.Equal(t, "https://example.com:8443/x?y=z", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "http://example.com/x", nil)
	w = httptest.NewRecorder()
	rd.server.Handler.ServeHTTP(w, req)
	require.Equal(t, "https://example.com:8443/x", w.Header().Get("Location"))
}

func TestRedirectNoUpstreamContact(t *testing.T) {
	rd := NewRedirector(zaptest.NewLogger(t), 443)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	w := httptest.NewRecorder()
	rd.server.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusMovedPermanently, w.Code)
	// the redirect body is a human readable notice, nothing more
	require.Contains(t, w.Body.String(), "Moved Permanently")
}
