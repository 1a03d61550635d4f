package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/table/domain"
	tablerepo "restaurant-pos/backend/internal/table/repository"
)

type memRepo struct {
	mu   sync.Mutex
	m    map[string]*domain.Table
	open map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{m: map[string]*domain.Table{}, open: map[string]bool{}}
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.m[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) List(ctx context.Context, status domain.Status) ([]*domain.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Table
	for _, t := range r.m {
		if status == "" || t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *memRepo) numberTaken(n int, except string) bool {
	for id, t := range r.m {
		if t.Number == n && id != except {
			return true
		}
	}
	return false
}

func (r *memRepo) Create(ctx context.Context, t *domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numberTaken(t.Number, t.ID) {
		return tablerepo.ErrNumberTaken
	}
	cp := *t
	r.m[t.ID] = &cp
	return nil
}

func (r *memRepo) Update(ctx context.Context, t *domain.Table) error {
	return r.Create(ctx, t)
}

func (r *memRepo) SetStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[id]
	if !ok {
		return false, nil
	}
	t.Status = status
	return true, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return false, nil
	}
	delete(r.m, id)
	return true, nil
}

func (r *memRepo) HasOpenOrder(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open[id], nil
}

func (r *memRepo) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	return nil, nil
}

func newApp(repo *memRepo) *fiber.App {
	h := New(repo)
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(nil)})
	app.Get("/api/tables", h.List)
	app.Post("/api/tables", h.Create)
	app.Get("/api/tables/:id", h.Get)
	app.Put("/api/tables/:id", h.Update)
	app.Patch("/api/tables/:id/status", h.UpdateStatus)
	app.Delete("/api/tables/:id", h.Delete)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestCreate(t *testing.T) {
	repo := newMemRepo()
	app := newApp(repo)

	testCases := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"number":1,"name":"Window","capacity":4}`, fiber.StatusCreated},
		{"duplicate number", `{"number":1,"capacity":2}`, fiber.StatusConflict},
		{"zero number", `{"number":0,"capacity":2}`, fiber.StatusBadRequest},
		{"zero capacity", `{"number":2,"capacity":0}`, fiber.StatusBadRequest},
		{"bad status", `{"number":3,"capacity":2,"status":"dirty"}`, fiber.StatusBadRequest},
		{"malformed", `{`, fiber.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := do(t, app, "POST", "/api/tables", tc.body)
			assert.Equal(t, tc.want, status)
		})
	}
	list, _ := repo.List(context.Background(), "")
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusAvailable, list[0].Status)
}

func TestList_StatusFilter(t *testing.T) {
	repo := newMemRepo()
	repo.m["a"] = &domain.Table{ID: "a", Number: 1, Capacity: 2, Status: domain.StatusAvailable}
	repo.m["b"] = &domain.Table{ID: "b", Number: 2, Capacity: 2, Status: domain.StatusOccupied}
	app := newApp(repo)

	status, env := do(t, app, "GET", "/api/tables?status=occupied", "")
	require.Equal(t, fiber.StatusOK, status)
	list, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	status, _ = do(t, app, "GET", "/api/tables?status=nope", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemRepo()
	repo.m["a"] = &domain.Table{ID: "a", Number: 1, Capacity: 2, Status: domain.StatusAvailable}
	app := newApp(repo)

	status, env := do(t, app, "PATCH", "/api/tables/a/status", `{"status":"reserved"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "reserved", env.Data.(map[string]any)["status"])

	status, _ = do(t, app, "PATCH", "/api/tables/a/status", `{"status":"gone"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = do(t, app, "PATCH", "/api/tables/missing/status", `{"status":"cleaning"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdate_PartialAndConflict(t *testing.T) {
	repo := newMemRepo()
	repo.m["a"] = &domain.Table{ID: "a", Number: 1, Name: "Patio", Capacity: 2, Status: domain.StatusAvailable}
	repo.m["b"] = &domain.Table{ID: "b", Number: 2, Capacity: 2, Status: domain.StatusAvailable}
	app := newApp(repo)

	status, env := do(t, app, "PUT", "/api/tables/a", `{"capacity":6}`)
	require.Equal(t, fiber.StatusOK, status)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(6), data["capacity"])
	assert.Equal(t, "Patio", data["name"])

	status, _ = do(t, app, "PUT", "/api/tables/a", `{"number":2}`)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestDelete_OpenOrder(t *testing.T) {
	repo := newMemRepo()
	repo.m["a"] = &domain.Table{ID: "a", Number: 1, Capacity: 2, Status: domain.StatusOccupied}
	repo.open["a"] = true
	app := newApp(repo)

	status, env := do(t, app, "DELETE", "/api/tables/a", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.False(t, env.Success)

	repo.open["a"] = false
	status, _ = do(t, app, "DELETE", "/api/tables/a", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "DELETE", "/api/tables/a", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
