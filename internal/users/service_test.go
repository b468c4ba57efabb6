package users

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/storeops/console/internal/shared"
)

type memoryUserRepo struct {
	users  map[int64]User
	hashes map[int64]string
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]User), hashes: make(map[int64]string)}
}

func (r *memoryUserRepo) ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	r.hashes[user.ID] = passwordHash
	return user, nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return u, nil
}

func TestCreateUserNormalizesAndHashes(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)

	created, err := svc.CreateUser(context.Background(), User{Email: "  Admin@Test.Local ", Name: " Casey "}, "longenough")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Email != "admin@test.local" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.Name != "Casey" {
		t.Fatalf("name not trimmed: %q", created.Name)
	}
	if !created.IsActive {
		t.Fatalf("new accounts must start active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.hashes[created.ID]), []byte("longenough")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemoryUserRepo())

	_, err := svc.CreateUser(context.Background(), User{Email: "not-an-email"}, "short")
	verr, ok := err.(*shared.ValidationError)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["email"]; !ok {
		t.Fatalf("expected email field error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["password"]; !ok {
		t.Fatalf("expected password field error, got %v", verr.Fields)
	}
}

func TestSetActiveUnknownUser(t *testing.T) {
	svc := NewService(newMemoryUserRepo())
	if _, err := svc.SetActive(context.Background(), 99, false); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
