package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/category/domain"
	categoryrepo "restaurant-pos/backend/internal/category/repository"
	"restaurant-pos/backend/internal/platform/response"
)

type memRepo struct {
	m     map[string]*domain.Category
	items map[string]int
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if c, ok := r.m[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range r.m {
		if !activeOnly || c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) Create(ctx context.Context, c *domain.Category) error {
	for id, existing := range r.m {
		if existing.Name == c.Name && id != c.ID {
			return categoryrepo.ErrNameTaken
		}
	}
	cp := *c
	r.m[c.ID] = &cp
	return nil
}

func (r *memRepo) Update(ctx context.Context, c *domain.Category) error { return r.Create(ctx, c) }

func (r *memRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := r.m[id]; !ok {
		return false, nil
	}
	delete(r.m, id)
	return true, nil
}

func (r *memRepo) CountItems(ctx context.Context, id string) (int, error) { return r.items[id], nil }

func newApp(repo *memRepo) *fiber.App {
	h := New(repo)
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(nil)})
	app.Get("/api/categories", h.List)
	app.Post("/api/categories", h.Create)
	app.Put("/api/categories/:id", h.Update)
	app.Delete("/api/categories/:id", h.Delete)
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
	repo := &memRepo{m: map[string]*domain.Category{}, items: map[string]int{}}
	app := newApp(repo)

	status, env := do(t, app, "POST", "/api/categories", `{"name":"  Mains ","sortOrder":2}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := env.Data.(map[string]any)
	assert.Equal(t, "Mains", data["name"])
	assert.Equal(t, true, data["active"])

	status, _ = do(t, app, "POST", "/api/categories", `{"name":"Mains"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	status, _ = do(t, app, "POST", "/api/categories", `{"name":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestList_ActiveFilter(t *testing.T) {
	repo := &memRepo{m: map[string]*domain.Category{
		"a": {ID: "a", Name: "Drinks", Active: true},
		"b": {ID: "b", Name: "Seasonal", Active: false},
	}}
	app := newApp(repo)

	_, env := do(t, app, "GET", "/api/categories", "")
	assert.Len(t, env.Data.([]any), 2)
	_, env = do(t, app, "GET", "/api/categories?active=true", "")
	assert.Len(t, env.Data.([]any), 1)
}

func TestUpdate(t *testing.T) {
	repo := &memRepo{m: map[string]*domain.Category{"a": {ID: "a", Name: "Drinks", Active: true}}}
	app := newApp(repo)

	status, env := do(t, app, "PUT", "/api/categories/a", `{"active":false}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, env.Data.(map[string]any)["active"])
	assert.Equal(t, "Drinks", env.Data.(map[string]any)["name"])

	status, _ = do(t, app, "PUT", "/api/categories/zzz", `{"name":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDelete_WithItems(t *testing.T) {
	repo := &memRepo{
		m:     map[string]*domain.Category{"a": {ID: "a", Name: "Drinks"}},
		items: map[string]int{"a": 3},
	}
	app := newApp(repo)

	status, _ := do(t, app, "DELETE", "/api/categories/a", "")
	assert.Equal(t, fiber.StatusConflict, status)

	repo.items["a"] = 0
	status, _ = do(t, app, "DELETE", "/api/categories/a", "")
	assert.Equal(t, fiber.StatusOK, status)
}
