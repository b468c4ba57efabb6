package authrules

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storeops/console/internal/platform/httpx"
	"github.com/storeops/console/internal/rbac"
	"github.com/storeops/console/internal/shared"
)

// Handler manages rule administration endpoints.
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

// MountRoutes registers rule routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRulesView))
		r.Get("/", h.list)
		r.Post("/preview", h.preview)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRulesEdit))
		r.Post("/", h.create)
		r.Post("/{id}/toggle", h.toggle)
	})
}

type createRuleRequest struct {
	Service        string   `json:"service" validate:"required"`
	Method         string   `json:"method" validate:"required"`
	PathPattern    string   `json:"pathPattern"`
	RouteName      string   `json:"routeName"`
	RolesAny       []string `json:"rolesAny"`
	PermissionsAny []string `json:"permissionsAny"`
	PermissionsAll []string `json:"permissionsAll"`
	Priority       int      `json:"priority" validate:"gte=0"`
	IsActive       bool     `json:"isActive"`
}

type toggleRequest struct {
	IsActive bool `json:"isActive"`
}

type previewRequest struct {
	Service     string   `json:"service" validate:"required"`
	Method      string   `json:"method" validate:"required"`
	Path        string   `json:"path" validate:"required"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Service: q.Get("service"),
		Method:  q.Get("method"),
	}
	if raw := q.Get("active"); raw != "" {
		active := raw == "true" || raw == "1"
		filters.Active = &active
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	rules, paging, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list rules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": rules, "pagination": paging})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", validationFields(err))
		return
	}
	actorID, _ := shared.ActorIDFromContext(r.Context())
	rule, err := h.service.Create(r.Context(), actorID, Rule{
		Service:        req.Service,
		Method:         req.Method,
		PathPattern:    req.PathPattern,
		RouteName:      req.RouteName,
		RolesAny:       req.RolesAny,
		PermissionsAny: req.PermissionsAny,
		PermissionsAll: req.PermissionsAll,
		Priority:       req.Priority,
		IsActive:       req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rule)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid rule id")
		return
	}
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	actorID, _ := shared.ActorIDFromContext(r.Context())
	rule, err := h.service.Toggle(r.Context(), actorID, id, req.IsActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "rule not found")
			return
		}
		h.logger.Error("toggle rule", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", validationFields(err))
		return
	}
	result, err := h.service.Preview(r.Context(), PreviewInput{
		Service:     req.Service,
		Method:      req.Method,
		Path:        req.Path,
		Roles:       req.Roles,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.logger.Error("preview rule", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
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
