package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/audit/domain"
	"restaurant-pos/backend/internal/platform/response"
)

type captureRepo struct {
	filter        domain.ListFilter
	limit, offset int
}

func (r *captureRepo) Create(ctx context.Context, a *domain.AuditLog) error { return nil }

func (r *captureRepo) List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.AuditLog, int, error) {
	r.filter, r.limit, r.offset = f, limit, offset
	return nil, 45, nil
}

func TestList(t *testing.T) {
	repo := &captureRepo{}
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(nil)})
	app.Get("/api/audit-logs", New(repo).List)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/audit-logs?userId=u1&action=login_failure&page=3&limit=10", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var env response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, []any{}, env.Data)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 5, env.Meta.TotalPages)
	assert.Equal(t, domain.ListFilter{UserID: "u1", Action: "login_failure"}, repo.filter)
	assert.Equal(t, 10, repo.limit)
	assert.Equal(t, 20, repo.offset)
}
