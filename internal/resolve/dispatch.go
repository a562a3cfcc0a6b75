package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"content_system/internal/pages"
)

// ErrNotFound is the signal a rendering or file-send collaborator returns
// when its subject does not exist. The dispatcher folds it into the
// not-found branch; any other collaborator error surfaces to the caller.
var ErrNotFound = errors.New("not found")

// ConfigError indicates broken deployment configuration, distinct from any
// per-request condition. It is surfaced loudly at startup, never folded
// into not-found.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("resolver configuration fault: %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RenderRequest is the input handed to the rendering collaborator
type RenderRequest struct {
	Page     pages.Page
	Template pages.Template
	Segments []string
	PageNum  int
	Ajax     bool
}

// Renderer turns a resolved page into output bytes. Returning ErrNotFound
// routes the request into the not-found branch; any other error is a
// render failure reported and re-surfaced unchanged.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// FileSender streams a secured file belonging to a page. Returning
// ErrNotFound routes into the not-found branch.
type FileSender interface {
	SendFile(ctx context.Context, pg pages.Page, subdir, filename string) error
}

// Hooks are the observability and extension points the dispatcher fires.
// Implementations must not panic; both hooks are fire-and-forget.
type Hooks struct {
	// NotifyFailure is called on not-found dispatch and render failure
	NotifyFailure func(err error, reason string, pg pages.Page, url string)

	// NotifyReady runs before the pending-redirect check when delayed
	// redirects are active, giving path-rewriting extensions a chance to
	// adjust canonical paths first
	NotifyReady func(pg pages.Page)
}

// Dispatcher orchestrates the resolution stages for one site: sanitize,
// secure-file check, path walk, segment validation, access control, scheme
// enforcement, then terminal classification. It is safe for concurrent use;
// all per-request state lives on the stack.
type Dispatcher struct {
	cfg       *Config
	store     pages.Store
	access    AccessPolicy
	renderer  Renderer
	files     FileSender
	normalize Normalizer
	hooks     Hooks
	logger    *slog.Logger
}

// NewDispatcher wires a dispatcher from its collaborators
func NewDispatcher(cfg *Config, store pages.Store, access AccessPolicy, renderer Renderer, files FileSender, normalize Normalizer, hooks Hooks) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:       cfg,
		store:     store,
		access:    access,
		renderer:  renderer,
		files:     files,
		normalize: normalize,
		hooks:     hooks,
		logger:    logger,
	}
}

// ValidateConfig verifies deployment-level settings against the store. A
// configured not-found page id that does not exist is a fatal fault, since
// it means every missing page would cascade into a broken fallback.
func (d *Dispatcher) ValidateConfig(ctx context.Context) error {
	if d.cfg.NotFoundPageID != 0 {
		pg, err := d.store.LookupByID(ctx, d.cfg.NotFoundPageID)
		if err != nil {
			return &ConfigError{Setting: "NotFoundPageID", Err: err}
		}
		if !pg.Exists() {
			return &ConfigError{Setting: "NotFoundPageID", Err: fmt.Errorf("page %d does not exist", d.cfg.NotFoundPageID)}
		}
	}
	return nil
}

// Dispatch resolves the request target to a page and classifies the
// response. Infrastructure errors from the store surface as errors with
// ClassError; resolution-phase conditions fold into not-found.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	return d.DispatchTo(ctx, req, d.files)
}

// DispatchTo is Dispatch with a per-request file sender, for transports
// whose sender writes directly to the response
func (d *Dispatcher) DispatchTo(ctx context.Context, req Request, files FileSender) (Outcome, error) {
	st := &state{request: req, sender: files}
	if st.sender == nil {
		st.sender = d.files
	}

	clean, indexFile, ok := sanitizePath(d.cfg, d.normalize, req.Target)
	if !ok {
		d.logger.Debug("path rejected by sanitizer", "target", req.Target)
		return d.notFound(ctx, st, errors.New("malformed path"), "sanitize")
	}
	st.cleanPath = clean
	st.indexFile = indexFile
	// the root path is its own trailing slash; counting it as slash-less
	// would make a slash-requiring root redirect to itself
	st.requestedSlash = strings.HasSuffix(clean, "/")

	path := clean

	if d.cfg.SecureFiles {
		fr, err := resolveSecureFile(ctx, d.cfg, d.store, path)
		if err != nil {
			return Outcome{Classification: ClassError}, err
		}
		switch fr.match {
		case fileMatched:
			st.page = fr.page
			st.file = &fileRequest{filename: fr.filename, subdir: fr.subdir}
			tpl, err := d.store.TemplateByID(ctx, fr.page.TemplateID)
			if err != nil {
				return Outcome{Classification: ClassError}, err
			}
			st.template = tpl
			return d.dispatchResolved(ctx, st, nil)
		case fileInvalid:
			return d.notFound(ctx, st, errors.New("invalid secure file path"), "securefile")
		case fileLegacyContinue:
			st.file = &fileRequest{filename: fr.filename}
			path = fr.rewritten
		}
	}

	viewable := func(pg pages.Page) bool {
		return d.access.Viewable(ctx, req.Principal, pg, false)
	}
	wr, err := walkPath(ctx, d.cfg, d.store, path, viewable)
	if err != nil {
		return Outcome{Classification: ClassError}, err
	}
	if !wr.page.Exists() {
		return d.notFound(ctx, st, errors.New("no page at path"), "walk")
	}

	st.page = wr.page
	st.segments = wr.segments
	st.pageNum = wr.pageNum

	tpl, err := d.store.TemplateByID(ctx, wr.page.TemplateID)
	if err != nil {
		return Outcome{Classification: ClassError}, err
	}
	st.template = tpl

	if wr.shortcut != nil {
		// unique-name shortcut is already a redirect; skip validation of
		// segments that do not exist and go straight to access and scheme
		return d.dispatchResolved(ctx, st, wr.shortcut)
	}

	redirect, ok := validateSegments(d.cfg, st, req.Principal)
	if !ok {
		return d.notFound(ctx, st, errors.New("segments rejected by template policy"), "segments")
	}

	return d.dispatchResolved(ctx, st, redirect)
}

// dispatchResolved runs the access, scheme, and terminal stages for a
// resolved page, with any canonicalization redirect already pending
func (d *Dispatcher) dispatchResolved(ctx context.Context, st *state, pending *RedirectTarget) (Outcome, error) {
	decision, loginRedirect, err := checkAccess(ctx, d.cfg, d.store, d.access, st)
	if err != nil {
		return Outcome{Classification: ClassError}, err
	}
	switch decision {
	case accessDenied:
		return d.notFound(ctx, st, errors.New("access denied"), "access")
	case accessRedirect:
		// denial redirect overrides any canonicalization target and goes
		// out exactly as configured; scheme enforcement only rewrites
		// canonical page URLs, never a login destination
		pending = loginRedirect
	default:
		pending = enforceScheme(d.cfg, st, pending)
	}

	if d.cfg.DelayRedirects && d.hooks.NotifyReady != nil {
		d.hooks.NotifyReady(st.page)
	}

	if pending != nil {
		class := ClassRedirect
		if pending.External {
			class = ClassExternal
		}
		return Outcome{
			Classification:    class,
			Page:              st.page,
			RedirectURL:       pending.URL,
			RedirectPermanent: pending.Permanent,
			DeniedID:          st.deniedID,
		}, nil
	}

	// with redirects not delayed, the ready hook still runs before any
	// content is produced
	if !d.cfg.DelayRedirects && d.hooks.NotifyReady != nil {
		d.hooks.NotifyReady(st.page)
	}

	if st.file != nil {
		if st.sender == nil {
			return d.notFound(ctx, st, errors.New("no file sender wired"), "file")
		}
		err := st.sender.SendFile(ctx, st.page, st.file.subdir, st.file.filename)
		if errors.Is(err, ErrNotFound) {
			return d.notFound(ctx, st, err, "file")
		}
		if err != nil {
			return Outcome{Classification: ClassError, Page: st.page}, err
		}
		return Outcome{Classification: ClassFile, Page: st.page}, nil
	}

	return d.render(ctx, st)
}

// render runs the rendering collaborator and classifies the output. A
// failure raised strictly during rendering is reported through the failure
// hook and re-surfaced unchanged, since partial output may already exist.
func (d *Dispatcher) render(ctx context.Context, st *state) (Outcome, error) {
	pageNum := 0
	if st.pageNum != nil {
		pageNum = st.pageNum.Value
	}

	body, err := d.renderer.Render(ctx, RenderRequest{
		Page:     st.page,
		Template: st.template,
		Segments: st.segments,
		PageNum:  pageNum,
		Ajax:     st.request.Ajax,
	})
	if errors.Is(err, ErrNotFound) {
		return d.notFound(ctx, st, err, "render")
	}
	if err != nil {
		d.notifyFailure(err, "render failure", st.page, st.cleanPath)
		return Outcome{Classification: ClassError, Page: st.page}, err
	}

	class := ClassNormal
	if st.request.Ajax {
		class = ClassAjax
	}
	return Outcome{
		Classification: class,
		Page:           st.page,
		Segments:       st.segments,
		PageNum:        pageNum,
		Body:           body,
	}, nil
}

// notFound is the terminal not-found branch. It notifies the failure hook,
// marks the not-found status (at most once per request, even when the
// fallback page itself re-enters this branch), and renders the configured
// fallback page or the literal fallback body.
func (d *Dispatcher) notFound(ctx context.Context, st *state, cause error, reason string) (Outcome, error) {
	d.notifyFailure(cause, reason, st.page, st.request.Target)

	out := Outcome{
		Classification: ClassNotFound,
		Page:           st.page,
		DeniedID:       st.deniedID,
		Body:           []byte(d.cfg.NotFoundBody),
	}
	if !st.sentNotFound {
		st.sentNotFound = true
		out.NotFoundSent = true
	}

	if d.cfg.NotFoundPageID != 0 {
		pg, err := d.store.LookupByID(ctx, d.cfg.NotFoundPageID)
		if err == nil && pg.Exists() {
			tpl, terr := d.store.TemplateByID(ctx, pg.TemplateID)
			if terr == nil {
				body, rerr := d.renderer.Render(ctx, RenderRequest{
					Page:     pg,
					Template: tpl,
					Ajax:     st.request.Ajax,
				})
				if rerr == nil {
					out.Body = body
				} else if !errors.Is(rerr, ErrNotFound) {
					d.notifyFailure(rerr, "not-found fallback render failure", pg, st.request.Target)
				}
			}
		}
	}

	return out, nil
}

// notifyFailure fires the failure hook when one is wired
func (d *Dispatcher) notifyFailure(err error, reason string, pg pages.Page, url string) {
	if d.hooks.NotifyFailure != nil {
		d.hooks.NotifyFailure(err, reason, pg, url)
	}
}
