package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pebble/internal/lattice/models"
	"pebble/internal/lattice/service"
	dErrors "pebble/pkg/domain-errors"
	"pebble/pkg/platform/httputil"
	"pebble/pkg/requestcontext"
)

// Service defines the lattice operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, entity models.Entity) (*models.VerificationRecord, error)
	Sync(ctx context.Context, entities []models.Entity) (*models.BatchReport, error)
	Lookup(ctx context.Context, latticeID string) (*models.VerificationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.VerificationRecord, error)
	Status(ctx context.Context) (*service.StatusResult, error)
}

// Handler handles lattice endpoints.
type Handler struct {
	lattice Service
	logger  *slog.Logger
}

func New(lattice Service, logger *slog.Logger) *Handler {
	return &Handler{lattice: lattice, logger: logger}
}

// Register registers the lattice routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/lattice", func(r chi.Router) {
		r.Post("/verify", h.HandleVerify)
		r.Post("/sync", h.HandleSync)
		r.Get("/records", h.HandleListRecords)
		r.Get("/records/{latticeID}", h.HandleGetRecord)
		r.Get("/status", h.HandleStatus)
	})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.lattice.Verify(ctx, req.Entity())
	if err != nil {
		h.logFailure(ctx, "verify failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleSync runs a batch. When the service returns a report together with
// an error, the records are already persisted, so the report is returned
// with a warning instead of an error status.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[SyncRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.lattice.Sync(ctx, req.Entities)
	if report == nil {
		h.logFailure(ctx, "sync failed", err)
		httputil.WriteError(w, err)
		return
	}

	resp := SyncResponse{BatchReport: report}
	if err != nil {
		h.logger.WarnContext(ctx, "sync finished with warning",
			"request_id", requestcontext.RequestID(ctx),
			"batch_id", report.ID,
			"error", err,
		)
		resp.Warning = string(dErrors.CodeOf(err))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}

	records, err := h.lattice.ListRecent(ctx, limit)
	if err != nil {
		h.logFailure(ctx, "list records failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Records: records, Count: len(records)})
}

func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.lattice.Lookup(ctx, chi.URLParam(r, "latticeID"))
	if err != nil {
		h.logFailure(ctx, "record lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.lattice.Status(ctx)
	if err != nil {
		h.logFailure(ctx, "status failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	args := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, msg, args...)
	default:
		h.logger.ErrorContext(ctx, msg, args...)
	}
}
