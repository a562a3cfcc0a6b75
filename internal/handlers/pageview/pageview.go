package pageview

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"content_system/internal/auth"
	"content_system/internal/observability"
	"content_system/internal/render"
	"content_system/internal/resolve"
)

// Handler is the site front controller: every page, secured file, and
// redirect flows through here. It extracts the transport facts, hands the
// target to the dispatcher, and writes the classified response.
type Handler struct {
	// Dispatcher resolves and classifies the request
	Dispatcher *resolve.Dispatcher

	// Sessions resolves the requesting principal from the session cookie
	Sessions *auth.SessionStore

	// Files locates secured files for streaming responses
	Files *render.FileStore

	// Metrics records resolution outcomes (optional)
	Metrics *observability.Metrics

	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger
}

// NewHandler wires the front controller from its collaborators
func NewHandler(dispatcher *resolve.Dispatcher, sessions *auth.SessionStore, files *render.FileStore, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Dispatcher: dispatcher,
		Sessions:   sessions,
		Files:      files,
		Metrics:    metrics,
		Logger:     logger,
	}
}

// target returns the raw request target. A rewriting front proxy may pass
// the original path through the dedicated "it" query parameter, which takes
// precedence over the request line.
func target(r *http.Request) string {
	if it := r.URL.Query().Get("it"); it != "" {
		return it
	}
	if r.URL.RawQuery != "" {
		return r.URL.Path + "?" + r.URL.RawQuery
	}
	return r.URL.Path
}

// scheme determines the actual transport scheme, trusting a forwarding
// proxy's X-Forwarded-Proto header when present
func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		if idx := strings.IndexByte(proto, ','); idx >= 0 {
			proto = proto[:idx]
		}
		return strings.TrimSpace(proto)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// isAjax recognizes XMLHttpRequest-style requests
func isAjax(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	principal := auth.GuestPrincipal()
	if h.Sessions != nil {
		principal = h.Sessions.Principal(r)
	}

	req := resolve.Request{
		Target:    target(r),
		Host:      r.Host,
		Scheme:    scheme(r),
		Ajax:      isAjax(r),
		Principal: principal,
	}

	// the file sender writes straight to the response, so it is built per
	// request rather than shared
	outcome, err := h.Dispatcher.DispatchTo(r.Context(), req, &render.HTTPFileSender{
		Store:   h.Files,
		Writer:  w,
		Request: r,
	})

	h.observe(outcome, time.Since(start))

	if err != nil {
		h.Logger.Error("dispatch failed",
			"target", req.Target,
			"classification", outcome.Classification.String(),
			"error", err,
		)
		if outcome.Classification == resolve.ClassError {
			h.writeError(w)
		}
		return
	}

	h.write(w, r, req, outcome)
}

// write turns a dispatch outcome into an HTTP response
func (h *Handler) write(w http.ResponseWriter, r *http.Request, req resolve.Request, outcome resolve.Outcome) {
	switch outcome.Classification {
	case resolve.ClassRedirect, resolve.ClassExternal:
		code := http.StatusFound
		if outcome.RedirectPermanent {
			code = http.StatusMovedPermanently
		}
		http.Redirect(w, r, outcome.RedirectURL, code)

	case resolve.ClassFile:
		// the file sender already streamed the response

	case resolve.ClassNotFound:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if outcome.NotFoundSent {
			w.WriteHeader(http.StatusNotFound)
		}
		w.Write(outcome.Body)
		h.Logger.Info("page not found",
			"target", req.Target,
			"denied_id", outcome.DeniedID,
		)

	case resolve.ClassNormal, resolve.ClassAjax:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(outcome.Body)

	default:
		h.writeError(w)
	}
}

func (h *Handler) writeError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("<!DOCTYPE html><html><body><h1>500 Internal Server Error</h1></body></html>"))
}

// observe records the outcome in the resolver metrics
func (h *Handler) observe(outcome resolve.Outcome, elapsed time.Duration) {
	if h.Metrics == nil {
		return
	}

	h.Metrics.ObserveResolution(outcome.Classification.String(), len(outcome.Segments), elapsed)

	switch outcome.Classification {
	case resolve.ClassNotFound:
		h.Metrics.ObserveNotFound()
	case resolve.ClassRedirect, resolve.ClassExternal:
		h.Metrics.ObserveRedirect(outcome.RedirectPermanent)
	}
}
