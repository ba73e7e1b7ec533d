package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"nipcheck/internal/nip/service"
	"nipcheck/pkg/domain"
	dErrors "nipcheck/pkg/domain-errors"
	"nipcheck/pkg/platform/httputil"
	"nipcheck/pkg/requestcontext"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// Service defines the NIP operations the handler depends on.
type Service interface {
	Validate(ctx context.Context, identifier string) (*service.ValidateResult, error)
	Guess(ctx context.Context, pattern string) (*service.GuessResult, error)
}

// Handler wires NIP endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a NIP handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts NIP endpoints on the router. guessMiddleware wraps every
// request that runs a wildcard search: the guess API, and the page when
// ?input= is set.
func (h *Handler) Register(r chi.Router, guessMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/api/validate/nip/{input}", h.HandleValidate)
	r.With(guessMiddleware...).Get("/api/guess/nip/{input}", h.HandleGuess)
	r.Method(http.MethodGet, "/", searchOnly(guessMiddleware, http.HandlerFunc(h.HandlePage)))
}

// searchOnly applies mw to next only for requests carrying ?input=.
func searchOnly(mw []func(http.Handler) http.Handler, next http.Handler) http.Handler {
	if len(mw) == 0 {
		return next
	}
	guarded := chi.Chain(mw...).Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("input") == "" {
			next.ServeHTTP(w, r)
			return
		}
		guarded.ServeHTTP(w, r)
	})
}

// HandleValidate handles GET /api/validate/nip/{input}.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	input := pathInput(r)

	result, err := h.service.Validate(ctx, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "nip validation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromValidateResult(result))
}

// HandleGuess handles GET /api/guess/nip/{input}.
func (h *Handler) HandleGuess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := requestcontext.Now(ctx)
	input := pathInput(r)

	result, err := h.service.Guess(ctx, input)
	if err != nil {
		h.logger.InfoContext(ctx, "nip guess rejected",
			"request_id", requestID,
			"pattern", input,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "nip guess served",
		"request_id", requestID,
		"pattern", input,
		"possibilities", len(result.Possibilities),
		"cached", result.Cached,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, fromGuessResult(result))
}

// HandlePage handles GET / and, when ?input= is present, renders the guesses
// for it below the form.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{
		Input:    r.URL.Query().Get("input"),
		Wildcard: string(domain.Wildcard),
		Max:      domain.MaxPlaceholders,
	}

	status := http.StatusOK
	if data.Input != "" {
		result, err := h.service.Guess(ctx, data.Input)
		if err != nil {
			data.Error = httputil.ToErrorResponse(err).Message
			status = dErrors.ToHTTPStatus(dErrors.CodeOf(err))
		} else {
			data.Searched = true
			data.Possibilities = result.Possibilities
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.ErrorContext(ctx, "render page failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// pathInput returns the {input} path parameter decoded exactly once. chi
// routes on URL.RawPath when it is set (the param is still escaped) and on
// the already decoded URL.Path otherwise.
func pathInput(r *http.Request) string {
	param := chi.URLParam(r, "input")
	if r.URL.RawPath == "" {
		return param
	}
	if decoded, err := url.PathUnescape(param); err == nil {
		return decoded
	}
	return param
}
