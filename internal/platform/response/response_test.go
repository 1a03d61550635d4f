package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/platform/pagination"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"bad request", BadRequest("name is required"), 400, "name is required"},
		{"unauthorized default message", Unauthorized(""), 401, "Unauthorized"},
		{"forbidden", Forbidden("insufficient role"), 403, "insufficient role"},
		{"not found", NotFound("table not found"), 404, "table not found"},
		{"conflict", Conflict("table number already exists"), 409, "table number already exists"},
		{"wrapped", errors.Join(errors.New("ctx"), NotFound("gone")), 404, "gone"},
		{"fiber error", fiber.NewError(fiber.StatusTooManyRequests, "slow down"), 429, "slow down"},
		{"internal hides cause", Internal(errors.New("pq: relation missing")), 500, "internal server error"},
		{"unknown", errors.New("boom"), 500, "internal server error"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := Classify(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMsg, msg)
		})
	}
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
}

func TestEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return OK(c, fiber.Map{"id": "t1"}) })
	app.Get("/page", func(c *fiber.Ctx) error {
		return Page(c, []string{"a"}, pagination.NewMeta(pagination.Params{Page: 1, Limit: 20}, 1))
	})
	app.Get("/fail", func(c *fiber.Ctx) error { return Fail(c, 400, "bad input") })

	decode := func(path string) (int, map[string]any) {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		var out map[string]any
		require.NoError(t, json.Unmarshal(body, &out))
		return resp.StatusCode, out
	}

	status, body := decode("/ok")
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "message")

	status, body = decode("/page")
	assert.Equal(t, 200, status)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["total"])
	assert.EqualValues(t, 1, meta["totalPages"])

	status, body = decode("/fail")
	assert.Equal(t, 400, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "bad input", body["message"])
}
