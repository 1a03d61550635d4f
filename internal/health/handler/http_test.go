package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/platform/response"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func get(t *testing.T, h *Handler, path string) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.Live)
	app.Get("/ready", h.Ready)
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var env response.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, _ := env.Data.(map[string]any)
	return resp.StatusCode, data
}

func TestLive(t *testing.T) {
	code, data := get(t, New(&mockPinger{pingErr: errors.New("down")}, nil, nil), "/health")
	if code != fiber.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if data["status"] != "ok" {
		t.Errorf("data.status = %v, want ok", data["status"])
	}
}

func TestReady(t *testing.T) {
	testCases := []struct {
		name     string
		db       Pinger
		policy   PolicyChecker
		want     int
		database string
		pol      string
	}{
		{"no dependencies", nil, nil, fiber.StatusOK, "", ""},
		{"all ok", &mockPinger{}, &mockPolicyChecker{}, fiber.StatusOK, "ok", "ok"},
		{"db down", &mockPinger{pingErr: errors.New("connection refused")}, &mockPolicyChecker{}, fiber.StatusServiceUnavailable, "unavailable", "ok"},
		{"policy broken", &mockPinger{}, &mockPolicyChecker{healthErr: errors.New("undefined")}, fiber.StatusServiceUnavailable, "ok", "unavailable"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, data := get(t, New(tc.db, tc.policy, nil), "/ready")
			if code != tc.want {
				t.Errorf("status = %d, want %d", code, tc.want)
			}
			if tc.database != "" && data["database"] != tc.database {
				t.Errorf("database = %v, want %q", data["database"], tc.database)
			}
			if tc.pol != "" && data["policy"] != tc.pol {
				t.Errorf("policy = %v, want %q", data["policy"], tc.pol)
			}
		})
	}
}
