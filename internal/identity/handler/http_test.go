package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/identity/service"
	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/security"
	"restaurant-pos/backend/internal/server/middleware"
	userdomain "restaurant-pos/backend/internal/user/domain"
)

type memUsers struct {
	mu sync.Mutex
	m  map[string]*userdomain.User
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id].PasswordHash = hash
	return nil
}

type auditCall struct{ userID, action string }

type fakeAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (f *fakeAudit) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{userID, action})
}

const cookieName = "token"

func newTestApp(t *testing.T) (*fiber.App, *fakeAudit) {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("correct horse"))
	require.NoError(t, err)
	users := &memUsers{m: map[string]*userdomain.User{
		"u1": {ID: "u1", Email: "ana@example.com", Name: "Ana", PasswordHash: hash, Role: userdomain.RoleWaiter, Status: userdomain.UserStatusActive},
		"u2": {ID: "u2", Email: "admin@example.com", Name: "Root", PasswordHash: hash, Role: userdomain.RoleAdmin, Status: userdomain.UserStatusActive},
	}}
	tokens := security.NewTestHMACTokenProvider()
	rec := &fakeAudit{}
	isAdmin := func(ctx context.Context) bool {
		id, _ := middleware.GetIdentity(ctx)
		return id.Role == "admin"
	}
	h := New(service.NewAuthService(users, hasher, tokens), rec, CookieConfig{Name: cookieName, Secure: true}, isAdmin)

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(nil)})
	requireAuth := middleware.RequireAuth(tokens, cookieName)
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/logout", h.Logout)
	app.Get("/api/auth/me", requireAuth, h.Me)
	app.Post("/api/users/:id/change-password", requireAuth, h.ChangePassword)
	return app, rec
}

func send(t *testing.T, app *fiber.App, method, path, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func login(t *testing.T, app *fiber.App, email string) *http.Cookie {
	t.Helper()
	resp := send(t, app, "POST", "/api/auth/login", `{"email":"`+email+`","password":"correct horse"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func TestLogin_SetsCookie(t *testing.T) {
	app, rec := newTestApp(t)
	resp := send(t, app, "POST", "/api/auth/login", `{"email":"ana@example.com","password":"correct horse"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var c *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == cookieName {
			c = ck
		}
	}
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.True(t, c.Expires.After(time.Now()))
	assert.NotEmpty(t, c.Value)
	assert.Equal(t, []auditCall{{"u1", "login_success"}}, rec.calls)
}

func TestLogin_Failures(t *testing.T) {
	app, rec := newTestApp(t)
	resp := send(t, app, "POST", "/api/auth/login", `{"email":"ana@example.com","password":"wrong horse"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []auditCall{{"", "login_failure"}}, rec.calls)

	resp = send(t, app, "POST", "/api/auth/login", `{"email":""}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = send(t, app, "POST", "/api/auth/login", `{"email":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMe(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Equal(t, fiber.StatusUnauthorized, send(t, app, "GET", "/api/auth/me", "").StatusCode)

	cookie := login(t, app, "ana@example.com")
	assert.Equal(t, fiber.StatusOK, send(t, app, "GET", "/api/auth/me", "", cookie).StatusCode)

	bad := &http.Cookie{Name: cookieName, Value: "tampered.token.value"}
	assert.Equal(t, fiber.StatusUnauthorized, send(t, app, "GET", "/api/auth/me", "", bad).StatusCode)
}

func TestLogout_ClearsCookie(t *testing.T) {
	app, _ := newTestApp(t)
	resp := send(t, app, "POST", "/api/auth/logout", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.Value == "" && c.Expires.Before(time.Now()) {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout should expire the session cookie")
}

func TestChangePassword(t *testing.T) {
	app, _ := newTestApp(t)
	ana := login(t, app, "ana@example.com")
	admin := login(t, app, "admin@example.com")

	testCases := []struct {
		name   string
		path   string
		body   string
		cookie *http.Cookie
		want   int
	}{
		{"no cookie", "/api/users/u1/change-password", `{"newPassword":"battery staple"}`, nil, fiber.StatusUnauthorized},
		{"self without current", "/api/users/u1/change-password", `{"newPassword":"battery staple"}`, ana, fiber.StatusBadRequest},
		{"self wrong current", "/api/users/u1/change-password", `{"currentPassword":"nope","newPassword":"battery staple"}`, ana, fiber.StatusBadRequest},
		{"self weak", "/api/users/u1/change-password", `{"currentPassword":"correct horse","newPassword":"short"}`, ana, fiber.StatusBadRequest},
		{"waiter on someone else", "/api/users/u2/change-password", `{"newPassword":"battery staple"}`, ana, fiber.StatusForbidden},
		{"admin on missing user", "/api/users/ghost/change-password", `{"newPassword":"battery staple"}`, admin, fiber.StatusNotFound},
		{"admin reset", "/api/users/u1/change-password", `{"newPassword":"battery staple"}`, admin, fiber.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.cookie != nil {
				cookies = append(cookies, tc.cookie)
			}
			resp := send(t, app, "POST", tc.path, tc.body, cookies...)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
