package hierarchy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storeops/console/internal/platform/httpx"
	"github.com/storeops/console/internal/rbac"
	"github.com/storeops/console/internal/shared"
)

// Handler manages hierarchy endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers hierarchy routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermHierarchyView))
		r.Get("/stores/{storeID}/tree", h.tree)
		r.Post("/stores/{storeID}/edges/validate", h.validateEdge)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermHierarchyEdit))
		r.Post("/stores/{storeID}/edges", h.createEdge)
		r.Post("/edges/delete", h.deleteEdges)
	})
}

type edgeRequest struct {
	HigherRoleID int64  `json:"higherRoleId" validate:"required,gt=0"`
	LowerRoleID  int64  `json:"lowerRoleId" validate:"required,gt=0"`
	Reason       string `json:"reason" validate:"max=500"`
}

type deleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid store id")
		return
	}
	forest, err := h.service.BuildTree(r.Context(), storeID)
	if err != nil {
		h.logger.Error("build tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"storeId": storeID, "roots": forest})
}

func (h *Handler) validateEdge(w http.ResponseWriter, r *http.Request) {
	storeID, req, ok := h.decodeEdge(w, r)
	if !ok {
		return
	}
	check, err := h.service.Validate(r.Context(), storeID, req.HigherRoleID, req.LowerRoleID)
	if err != nil {
		h.logger.Error("validate edge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"exists": check.Exists, "wouldCycle": check.WouldCycle})
}

func (h *Handler) createEdge(w http.ResponseWriter, r *http.Request) {
	storeID, req, ok := h.decodeEdge(w, r)
	if !ok {
		return
	}
	actorID, _ := shared.ActorIDFromContext(r.Context())
	edge, err := h.service.Create(r.Context(), CreateEdgeInput{
		StoreID:      storeID,
		HigherRoleID: req.HigherRoleID,
		LowerRoleID:  req.LowerRoleID,
		CreatedBy:    actorID,
		Reason:       req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEdgeExists):
			httpx.Problem(w, http.StatusConflict, "Conflict", "this relationship already exists")
		case errors.Is(err, ErrWouldCycle):
			httpx.Problem(w, http.StatusConflict, "Conflict", "this would create a cycle")
		default:
			h.logger.Error("create edge", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, edge)
}

func (h *Handler) deleteEdges(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ids must contain at least one positive id")
		return
	}
	actorID, _ := shared.ActorIDFromContext(r.Context())
	result, err := h.service.DeleteBatch(r.Context(), actorID, req.IDs)
	if err != nil {
		h.logger.Error("delete edges", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"deleted": result.Deleted,
		"failed":  result.Failed,
		"summary": fmt.Sprintf("%d deleted, %d failed", len(result.Deleted), len(result.Failed)),
	})
}

func (h *Handler) decodeEdge(w http.ResponseWriter, r *http.Request) (int64, edgeRequest, bool) {
	storeID, err := storeIDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid store id")
		return 0, edgeRequest{}, false
	}
	var req edgeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return 0, edgeRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", fields)
		return 0, edgeRequest{}, false
	}
	return storeID, req, true
}

func storeIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
}
