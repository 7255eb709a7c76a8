package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/service/catalog"
	"github.com/ashita-ai/aitools/internal/source"
)

// maxPageSize bounds page_size so one request cannot ask for an unbounded page.
const maxPageSize = 100

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	svc       *catalog.Service
	logger    *slog.Logger
	startedAt time.Time
	version   string
}

// HandlersDeps holds all dependencies for constructing Handlers.
type HandlersDeps struct {
	Service *catalog.Service
	Logger  *slog.Logger
	Version string
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		svc:       d.Service,
		logger:    d.Logger,
		startedAt: time.Now(),
		version:   d.Version,
	}
}

// HandleListTools handles GET /v1/tools.
func (h *Handlers) HandleListTools(w http.ResponseWriter, r *http.Request) {
	q, err := model.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	h.writePage(w, r, q, 0)
}

// HandleTrendingTools handles GET /v1/tools/trending.
func (h *Handlers) HandleTrendingTools(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, model.Query{}.WithTrendingOnly(true), catalog.TrendingPageSize)
}

// HandleNewTools handles GET /v1/tools/new.
func (h *Handlers) HandleNewTools(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, model.Query{}.WithNewOnly(true), 0)
}

// writePage serves one page of q. defaultSize applies when the request has no
// page_size; zero means the service default.
func (h *Handlers) writePage(w http.ResponseWriter, r *http.Request, q model.Query, defaultSize int) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	size, err := intParam(r, "page_size", defaultSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	result, err := h.svc.Page(r.Context(), model.NewListing(q).WithPage(page), size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

// HandleGetTool handles GET /v1/tools/{id}.
func (h *Handlers) HandleGetTool(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tool, err := h.svc.Tool(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, tool)
}

// HandleCategories handles GET /v1/categories.
func (h *Handlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, cats)
}

// HandleCategoryStats handles GET /v1/categories/stats.
func (h *Handlers) HandleCategoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.CategoryStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, stats)
}

// HandlePricingOptions handles GET /v1/pricing-options.
func (h *Handlers) HandlePricingOptions(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.svc.PricingOptions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, tiers)
}

// HandleCacheStatus handles GET /v1/cache.
func (h *Handlers) HandleCacheStatus(w http.ResponseWriter, r *http.Request) {
	statuses := h.svc.Statuses()
	if statuses == nil {
		statuses = []catalog.Status{}
	}
	h.writeJSON(w, r, http.StatusOK, statuses)
}

// HandleRevalidate handles POST /v1/revalidate?key=.
// A failed refetch answers 502 but the previous value stays cached.
func (h *Handlers) HandleRevalidate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "key is required")
		return
	}

	st, err := h.svc.Revalidate(r.Context(), key)
	switch {
	case errors.Is(err, catalog.ErrUnknownKey):
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "no cached entry for key")
	case err != nil:
		writeError(w, r, http.StatusBadGateway, model.ErrCodeUpstream, "refetch failed; previous value retained")
	default:
		h.writeJSON(w, r, http.StatusOK, st)
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Backend: h.svc.Backend(),
		Uptime:  int64(time.Since(h.startedAt).Seconds()),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, h.svc.Backend(), data)
}

// writeServiceError maps catalog errors onto HTTP statuses. Remote failures
// are already absorbed by the source fallback, so what reaches here is a
// miss, a cancelled request, or a genuine fault.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound):
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "tool not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client is gone or out of time; log quietly.
		h.logger.DebugContext(r.Context(), "request ended before catalog read", "error", err)
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUpstream, "request cancelled")
	default:
		h.logger.ErrorContext(r.Context(), "catalog read failed", "error", err, "path", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}
