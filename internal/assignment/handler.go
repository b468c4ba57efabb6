package assignment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/storeops/console/internal/platform/httpx"
	"github.com/storeops/console/internal/rbac"
	"github.com/storeops/console/internal/shared"
)

// Enqueuer hands large bulk runs to the background worker.
type Enqueuer interface {
	EnqueueBulkRun(ctx context.Context, runID string, actorID int64, tuples []Tuple) error
}

// Handler manages assignment endpoints.
type Handler struct {
	logger         *slog.Logger
	orchestrator   *Orchestrator
	rbac           rbac.Middleware
	validator      *validator.Validate
	enqueuer       Enqueuer
	asyncThreshold int
}

// NewHandler builds Handler instance. enqueuer may be nil, in which case every
// run is processed synchronously.
func NewHandler(logger *slog.Logger, orchestrator *Orchestrator, rbac rbac.Middleware, enqueuer Enqueuer, asyncThreshold int) *Handler {
	return &Handler{
		logger:         logger,
		orchestrator:   orchestrator,
		rbac:           rbac,
		validator:      validator.New(),
		enqueuer:       enqueuer,
		asyncThreshold: asyncThreshold,
	}
}

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermAssignmentsView))
		r.Get("/", h.list)
		r.Post("/preview", h.preview)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermAssignmentsEdit))
		r.Post("/bulk", h.bulk)
		r.Post("/toggle", h.toggle)
		r.Post("/remove", h.remove)
	})
}

type selectionRequest struct {
	Users    []int64           `json:"users" validate:"required,min=1,dive,gt=0"`
	Roles    []int64           `json:"roles" validate:"required,min=1,dive,gt=0"`
	Stores   []int64           `json:"stores" validate:"required,min=1,dive,gt=0"`
	Metadata map[string]string `json:"metadata"`
}

type tupleRequest struct {
	UserID   int64 `json:"userId" validate:"required,gt=0"`
	RoleID   int64 `json:"roleId" validate:"required,gt=0"`
	StoreID  int64 `json:"storeId" validate:"required,gt=0"`
	IsActive bool  `json:"isActive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "userId is required")
		return
	}
	tuples, err := h.orchestrator.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"assignments": tuples,
		"count":       len(tuples),
	})
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSelection(w, r)
	if !ok {
		return
	}
	sess, ok := h.confirmSelection(w, uuid.NewString(), req)
	if !ok {
		return
	}
	tuples := BuildTuples(sess.SelectedUsers, sess.SelectedRoles, sess.SelectedStores, req.Metadata)
	completed, total := sess.Progress()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"count":  len(tuples),
		"tuples": tuples,
		"steps":  sess.Steps(),
		"progress": map[string]int{
			"completed": completed,
			"total":     total,
		},
	})
}

func (h *Handler) bulk(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSelection(w, r)
	if !ok {
		return
	}
	actorID, _ := shared.ActorIDFromContext(r.Context())
	runID := uuid.NewString()
	sess, ok := h.confirmSelection(w, runID, req)
	if !ok {
		return
	}
	tuples := BuildTuples(sess.SelectedUsers, sess.SelectedRoles, sess.SelectedStores, req.Metadata)

	sess, err := sess.StartSubmit()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if h.enqueuer != nil && len(tuples) >= h.asyncThreshold {
		if err := h.enqueuer.EnqueueBulkRun(r.Context(), runID, actorID, tuples); err != nil {
			h.logger.Error("enqueue bulk run", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]any{
			"runId":  runID,
			"count":  len(tuples),
			"queued": true,
			"stage":  sess.Stage,
		})
		return
	}

	result := h.orchestrator.Submit(r.Context(), actorID, runID, tuples)
	sess, err = sess.Complete(result)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"runId":     runID,
		"stage":     sess.Stage,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"summary":   result.Summary(),
	})
}

// confirmSelection replays the payload through the run stage machine so the
// same invariants guard both the UI and the API path.
func (h *Handler) confirmSelection(w http.ResponseWriter, runID string, req selectionRequest) (Session, bool) {
	sess, err := sessionFromSelection(runID, req.Users, req.Roles, req.Stores)
	if err != nil {
		if errors.Is(err, ErrEmptySelection) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "selection must include users, roles, and stores")
			return sess, false
		}
		httpx.RespondError(w, err)
		return sess, false
	}
	return sess, true
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTuple(w, r)
	if !ok {
		return
	}
	tuple, err := h.orchestrator.ToggleStatus(r.Context(), req.UserID, req.RoleID, req.StoreID, req.IsActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "assignment not found")
			return
		}
		h.logger.Error("toggle assignment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tuple)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTuple(w, r)
	if !ok {
		return
	}
	if err := h.orchestrator.Remove(r.Context(), req.UserID, req.RoleID, req.StoreID); err != nil {
		h.logger.Error("remove assignment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeSelection(w http.ResponseWriter, r *http.Request) (selectionRequest, bool) {
	var req selectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return selectionRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", validationFields(err))
		return selectionRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeTuple(w http.ResponseWriter, r *http.Request) (tupleRequest, bool) {
	var req tupleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return tupleRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", validationFields(err))
		return tupleRequest{}, false
	}
	return req, true
}

func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return fields
}
