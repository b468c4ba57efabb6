package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/storeops/console/internal/auth"
	"github.com/storeops/console/internal/shared"
	"github.com/storeops/console/internal/snapshot"
	_ "github.com/storeops/console/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type stubBuilder struct {
	snap  snapshot.Snapshot
	calls int
}

func (b *stubBuilder) BuildSnapshot(ctx context.Context, userID int64) (snapshot.Snapshot, error) {
	b.calls++
	return b.snap, nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager, *snapshot.Cache, *stubBuilder) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	snapshots := snapshot.NewCache(redisClient, 30*time.Minute, nil)
	builder := &stubBuilder{snap: snapshot.Snapshot{
		AllPermissions: []snapshot.Permission{{ID: 1, Name: "users.view"}},
		Summary:        snapshot.Summary{PermissionCount: 1},
	}}
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, csrfManager, snapshots, builder)
	return handler, sessionManager, snapshots, builder
}

func chiMount(handler *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func loginRequest(t *testing.T, sessionManager *shared.SessionManager, body string) (*http.Request, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginSuccessBindsSessionAndSnapshot(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{user: &auth.User{ID: 7, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}
	handler, sessionManager, snapshots, _ := newAuthHandler(t, repo)

	mux := chiMount(handler)
	req, sess := loginRequest(t, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if sess.User() != "7" {
		t.Fatalf("expected session bound to user 7, got %q", sess.User())
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.CSRFToken == "" {
		t.Fatalf("expected csrf token in login response")
	}

	if !snapshots.HasPermission(context.Background(), 7, "users.view") {
		t.Fatalf("expected snapshot saved at login")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{user: &auth.User{ID: 7, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}
	handler, sessionManager, _, _ := newAuthHandler(t, repo)

	mux := chiMount(handler)
	req, sess := loginRequest(t, sessionManager, `{"email":"user@test.local","password":"wrongpass"}`)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if sess.User() != "" {
		t.Fatalf("failed login must not bind the session to a user")
	}
}

func TestMeBuildsSnapshotOnceThenServesCache(t *testing.T) {
	handler, _, _, builder := newAuthHandler(t, &stubRepo{})
	mux := chiMount(handler)

	meRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		return req.WithContext(shared.ContextWithActorID(req.Context(), 7))
	}

	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		mux.ServeHTTP(res, meRequest())
		if res.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
		}
	}

	// The first call builds and saves; later calls serve the cached snapshot.
	if builder.calls != 1 {
		t.Fatalf("expected one snapshot build, got %d", builder.calls)
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	repo := &stubRepo{user: &auth.User{ID: 7, Email: "user@test.local", PasswordHash: string(hashed), IsActive: false}}
	handler, sessionManager, _, _ := newAuthHandler(t, repo)

	mux := chiMount(handler)
	req, _ := loginRequest(t, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %d", res.Code)
	}
}
