package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestIDTrustsSaneInbound(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "upstream-id-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "upstream-id-42", w.Header().Get("X-Request-ID"))
}

func TestRequestIDReplacesJunkInbound(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, junk := range []string{strings.Repeat("x", 100), "has space", "ctl\x01char"} {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Request-ID", junk)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.NotEqual(t, junk, w.Header().Get("X-Request-ID"))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDNotTrustedWhenDisabled(t *testing.T) {
	config := DefaultRequestIDConfig()
	config.TrustInbound = false
	handler := RequestID(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "upstream-id-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.NotEqual(t, "upstream-id-42", w.Header().Get("X-Request-ID"))
}
