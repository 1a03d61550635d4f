package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/security"
	"restaurant-pos/backend/internal/server/middleware"
	"restaurant-pos/backend/internal/user/domain"
	userrepo "restaurant-pos/backend/internal/user/repository"
)

type memRepo struct {
	mu    sync.Mutex
	m     map[string]*domain.User
	inUse map[string]bool
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.m[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.User
	for _, u := range r.m {
		if f.Role == "" || u.Role == f.Role {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *memRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.m {
		if u.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

func (r *memRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return userrepo.ErrEmailTaken
	}
	cp := *u
	r.m[u.ID] = &cp
	return nil
}

func (r *memRepo) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, u.ID) {
		return userrepo.ErrEmailTaken
	}
	cp := *u
	r.m[u.ID] = &cp
	return nil
}

func (r *memRepo) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error { return nil }

func (r *memRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inUse[id] {
		return false, userrepo.ErrUserInUse
	}
	_, ok := r.m[id]
	delete(r.m, id)
	return ok, nil
}

func newTestApp(t *testing.T) (*fiber.App, *memRepo) {
	t.Helper()
	repo := &memRepo{
		m: map[string]*domain.User{
			"admin": {ID: "admin", Email: "admin@example.com", Name: "Admin", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
			"w1":    {ID: "w1", Email: "w1@example.com", Name: "Wendy", Role: domain.RoleWaiter, Status: domain.UserStatusActive},
		},
		inUse: map[string]bool{"w1": true},
	}
	isAdmin := func(ctx context.Context) bool {
		id, _ := middleware.GetIdentity(ctx)
		return id.Role == "admin"
	}
	h := New(repo, security.NewHasher(4), nil, isAdmin)

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(nil)})
	// X-User is a test stand-in for the session cookie: "id:role".
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User"); v != "" {
			parts := strings.SplitN(v, ":", 2)
			c.SetUserContext(middleware.WithIdentity(c.UserContext(), middleware.Identity{UserID: parts[0], Role: parts[1]}))
		}
		return c.Next()
	})
	app.Get("/api/users", h.List)
	app.Post("/api/users", h.Create)
	app.Get("/api/users/:id", h.Get)
	app.Put("/api/users/:id", h.Update)
	app.Delete("/api/users/:id", h.Delete)
	return app, repo
}

func call(t *testing.T, app *fiber.App, method, path, user, body string) (int, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var env response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestCreate(t *testing.T) {
	app, repo := newTestApp(t)
	status, env := call(t, app, "POST", "/api/users", "admin:admin",
		`{"email":"New@Example.com","name":"Nia","password":"correct horse","role":"cashier"}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := env.Data.(map[string]any)
	assert.Equal(t, "new@example.com", data["email"])
	assert.NotContains(t, data, "passwordHash")

	stored, _ := repo.GetByEmail(context.Background(), "new@example.com")
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.PasswordHash)

	testCases := []struct {
		name, body string
		want       int
	}{
		{"duplicate email", `{"email":"w1@example.com","name":"X","password":"correct horse","role":"waiter"}`, fiber.StatusConflict},
		{"weak password", `{"email":"a@example.com","name":"X","password":"short","role":"waiter"}`, fiber.StatusBadRequest},
		{"bad role", `{"email":"a@example.com","name":"X","password":"correct horse","role":"chef"}`, fiber.StatusBadRequest},
		{"bad email", `{"email":"nope","name":"X","password":"correct horse","role":"waiter"}`, fiber.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := call(t, app, "POST", "/api/users", "admin:admin", tc.body)
			assert.Equal(t, tc.want, status)
		})
	}
}

func TestList_Paginated(t *testing.T) {
	app, _ := newTestApp(t)
	status, env := call(t, app, "GET", "/api/users?limit=1&page=2", "admin:admin", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
	assert.Len(t, env.Data, 1)

	status, env = call(t, app, "GET", "/api/users?role=waiter", "admin:admin", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, env.Meta.Total)

	status, _ = call(t, app, "GET", "/api/users?role=chef", "admin:admin", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGet_SelfOrAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := call(t, app, "GET", "/api/users/w1", "w1:waiter", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, "GET", "/api/users/admin", "w1:waiter", "")
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = call(t, app, "GET", "/api/users/w1", "admin:admin", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, "GET", "/api/users/ghost", "admin:admin", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = call(t, app, "GET", "/api/users/w1", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestUpdate(t *testing.T) {
	app, repo := newTestApp(t)
	status, _ := call(t, app, "PUT", "/api/users/w1", "admin:admin", `{"role":"manager","status":"disabled"}`)
	require.Equal(t, fiber.StatusOK, status)
	u, _ := repo.GetByID(context.Background(), "w1")
	assert.Equal(t, domain.RoleManager, u.Role)
	assert.Equal(t, domain.UserStatusDisabled, u.Status)
	assert.Equal(t, "Wendy", u.Name, "omitted fields are unchanged")

	status, _ = call(t, app, "PUT", "/api/users/admin", "admin:admin", `{"status":"disabled"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "PUT", "/api/users/w1", "admin:admin", `{"email":"admin@example.com"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	status, _ = call(t, app, "PUT", "/api/users/ghost", "admin:admin", `{"name":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDelete(t *testing.T) {
	app, repo := newTestApp(t)
	status, _ := call(t, app, "DELETE", "/api/users/admin", "admin:admin", "")
	assert.Equal(t, fiber.StatusBadRequest, status, "cannot delete self")
	status, _ = call(t, app, "DELETE", "/api/users/w1", "admin:admin", "")
	assert.Equal(t, fiber.StatusConflict, status, "user with orders")

	repo.inUse = nil
	status, _ = call(t, app, "DELETE", "/api/users/w1", "admin:admin", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, "DELETE", "/api/users/w1", "admin:admin", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
