// Package handler exposes the telemetry store over HTTP: public ingestion and admin reads.
package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/logging"
	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/telemetry/domain"
)

// Recorder is the subset of *store.Store used by the handler.
type Recorder interface {
	AppendEvent(ctx context.Context, ev domain.Event) error
	RecordPageView(ctx context.Context, pv domain.PageView) error
	RecordPerformanceTiming(ctx context.Context, pt domain.PerformanceTiming) error
	RecordError(ctx context.Context, er domain.ErrorReport) error
	EventData(ctx context.Context) domain.EventData
	PageViews(ctx context.Context) domain.PageViewData
	PerformanceData(ctx context.Context, f domain.PerformanceFilter) domain.PerformanceData
	ErrorData(ctx context.Context) domain.ErrorData
}

// Handler serves the analytics and performance endpoints.
type Handler struct {
	store Recorder
	log   logging.Logger
}

// New returns the telemetry handler. log may be nil.
func New(store Recorder, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{store: store, log: log}
}

// PublicRoutes mounts the anonymous ingestion endpoints.
func (h *Handler) PublicRoutes(r fiber.Router) {
	r.Post("/analytics/event", h.PostEvent)
	r.Post("/analytics/pageview", h.PostPageView)
	r.Post("/performance/timing", h.PostTiming)
	r.Post("/performance/error", h.PostError)
}

// AdminRoutes mounts the read endpoints, each behind guards.
func (h *Handler) AdminRoutes(r fiber.Router, guards ...fiber.Handler) {
	with := func(fn fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), fn)
	}
	r.Get("/analytics/event", with(h.GetEvents)...)
	r.Get("/analytics/pageview", with(h.GetPageViews)...)
	r.Get("/performance/timing", with(h.GetTimings)...)
	r.Get("/performance/error", with(h.GetErrors)...)
}

type eventRequest struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
	Path       string         `json:"path"`
	SessionID  string         `json:"sessionId"`
	Timestamp  *time.Time     `json:"timestamp"`
}

type pageViewRequest struct {
	Path      string     `json:"path"`
	Referrer  string     `json:"referrer"`
	Title     string     `json:"title"`
	SessionID string     `json:"sessionId"`
	Timestamp *time.Time `json:"timestamp"`
}

type timingRequest struct {
	Name      string             `json:"name"`
	Path      string             `json:"path"`
	Metrics   map[string]float64 `json:"metrics"`
	Timestamp *time.Time         `json:"timestamp"`
}

type errorRequest struct {
	Message   string     `json:"message"`
	Stack     string     `json:"stack"`
	Path      string     `json:"path"`
	Component string     `json:"component"`
	Timestamp *time.Time `json:"timestamp"`
}

// PostEvent records an analytics event. name is required.
func (h *Handler) PostEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return response.BadRequest("name is required")
	}
	h.persist(c, "event", h.store.AppendEvent(c.UserContext(), domain.Event{
		Name:       req.Name,
		Properties: req.Properties,
		Path:       req.Path,
		SessionID:  req.SessionID,
		Timestamp:  orZero(req.Timestamp),
	}))
	return response.Empty(c)
}

// PostPageView records a page view; the user agent comes from the request header.
func (h *Handler) PostPageView(c *fiber.Ctx) error {
	var req pageViewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		return response.BadRequest("path is required")
	}
	h.persist(c, "pageview", h.store.RecordPageView(c.UserContext(), domain.PageView{
		Path:      req.Path,
		Referrer:  req.Referrer,
		Title:     req.Title,
		SessionID: req.SessionID,
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Timestamp: orZero(req.Timestamp),
	}))
	return response.Empty(c)
}

// PostTiming records performance metrics keyed by name or path.
func (h *Handler) PostTiming(c *fiber.Ctx) error {
	var req timingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.Path) == "" {
		return response.BadRequest("name or path is required")
	}
	if len(req.Metrics) == 0 {
		return response.BadRequest("metrics are required")
	}
	h.persist(c, "performance", h.store.RecordPerformanceTiming(c.UserContext(), domain.PerformanceTiming{
		Name:      strings.TrimSpace(req.Name),
		Path:      strings.TrimSpace(req.Path),
		Metrics:   req.Metrics,
		Timestamp: orZero(req.Timestamp),
	}))
	return response.Empty(c)
}

// PostError records a client error report. message is required.
func (h *Handler) PostError(c *fiber.Ctx) error {
	var req errorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return response.BadRequest("message is required")
	}
	h.persist(c, "error", h.store.RecordError(c.UserContext(), domain.ErrorReport{
		Message:   req.Message,
		Stack:     req.Stack,
		Path:      req.Path,
		Component: req.Component,
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Timestamp: orZero(req.Timestamp),
	}))
	return response.Empty(c)
}

// GetEvents returns event counts and the recent event list.
func (h *Handler) GetEvents(c *fiber.Ctx) error {
	return response.OK(c, h.store.EventData(c.UserContext()))
}

// GetPageViews returns per-path view counts and recent page views.
func (h *Handler) GetPageViews(c *fiber.Ctx) error {
	return response.OK(c, h.store.PageViews(c.UserContext()))
}

// GetTimings returns performance aggregates, optionally filtered by ?name= and ?path=.
func (h *Handler) GetTimings(c *fiber.Ctx) error {
	f := domain.PerformanceFilter{Name: c.Query("name"), Path: c.Query("path")}
	return response.OK(c, h.store.PerformanceData(c.UserContext(), f))
}

// GetErrors returns error counts and recent error reports.
func (h *Handler) GetErrors(c *fiber.Ctx) error {
	return response.OK(c, h.store.ErrorData(c.UserContext()))
}

// persist logs a store rejection. Ingestion answers success regardless.
func (h *Handler) persist(c *fiber.Ctx, kind string, err error) {
	if err != nil {
		h.log.Warn(c.UserContext(), "telemetry: record dropped", "kind", kind, "error", err)
	}
}

func orZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
