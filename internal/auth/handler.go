package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storeops/console/internal/platform/httpx"
	"github.com/storeops/console/internal/shared"
	"github.com/storeops/console/internal/snapshot"
)

// SnapshotBuilder assembles the permission snapshot saved at login.
type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context, userID int64) (snapshot.Snapshot, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	snapshots      *snapshot.Cache
	builder        SnapshotBuilder
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, snapshots *snapshot.Cache, builder SnapshotBuilder) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		snapshots:      snapshots,
		builder:        builder,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/refresh", h.handleRefresh)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))

	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
	}

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	var summary snapshot.Summary
	if h.builder != nil && h.snapshots != nil {
		snap, err := h.builder.BuildSnapshot(r.Context(), user.ID)
		if err != nil {
			// Login still succeeds; checks fall back to the database.
			h.logger.Warn("build permission snapshot", slog.Any("error", err))
		} else if err := h.snapshots.Save(r.Context(), user.ID, snap); err != nil {
			h.logger.Warn("save permission snapshot", slog.Any("error", err))
		} else {
			summary = snap.Summary
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
		"csrfToken": csrfToken,
		"summary":   summary,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if userID, ok := shared.ActorIDFromContext(r.Context()); ok && h.snapshots != nil {
			h.snapshots.Invalidate(r.Context(), userID)
		}
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh extends the snapshot expiry without rebuilding it.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.ActorIDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
		return
	}
	if h.snapshots != nil {
		h.snapshots.RefreshExpiration(r.Context(), userID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.ActorIDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
		return
	}
	if h.snapshots == nil || h.builder == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no permission data")
		return
	}
	// Concurrent rebuilds for the same user collapse to one builder call.
	snap, err := h.snapshots.GetOrBuild(r.Context(), userID, func(ctx context.Context) (snapshot.Snapshot, error) {
		return h.builder.BuildSnapshot(ctx, userID)
	})
	if err != nil {
		h.logger.Error("build permission snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"userId": userID, "snapshot": snap})
}
