// Package handler serves the menu: staff item management and the public menu.
package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	categorydomain "restaurant-pos/backend/internal/category/domain"
	"restaurant-pos/backend/internal/menu/domain"
	"restaurant-pos/backend/internal/menu/imagestore"
	menurepo "restaurant-pos/backend/internal/menu/repository"
	"restaurant-pos/backend/internal/platform/pagination"
	"restaurant-pos/backend/internal/platform/response"
	settingsdomain "restaurant-pos/backend/internal/settings/domain"
)

// CategoryReader is the category access the menu needs.
type CategoryReader interface {
	GetByID(ctx context.Context, id string) (*categorydomain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]*categorydomain.Category, error)
}

// SettingsReader returns the effective restaurant settings.
type SettingsReader interface {
	Current(ctx context.Context) (*settingsdomain.Settings, error)
}

// ImagePresigner issues upload URLs. *imagestore.S3Store implements it.
type ImagePresigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (*imagestore.Upload, error)
}

type Handler struct {
	items         menurepo.Repository
	categories    CategoryReader
	settings      SettingsReader
	images        ImagePresigner
	publicBaseURL string
	now           func() time.Time
}

// New returns the menu handler. images may be nil when object storage is not configured.
func New(items menurepo.Repository, categories CategoryReader, settings SettingsReader, images ImagePresigner, publicBaseURL string) *Handler {
	return &Handler{
		items:         items,
		categories:    categories,
		settings:      settings,
		images:        images,
		publicBaseURL: publicBaseURL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List handles GET /api/menu/items?categoryId=&available=&q=&page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	p := pagination.Parse(c.Query("page"), c.Query("limit"))
	f := domain.ListFilter{CategoryID: c.Query("categoryId"), Query: c.Query("q")}
	switch c.Query("available") {
	case "":
	case "true":
		f.Available = boolPtr(true)
	case "false":
		f.Available = boolPtr(false)
	default:
		return response.BadRequest("available must be true or false")
	}
	items, total, err := h.items.List(c.UserContext(), f, p.Limit, p.Offset())
	if err != nil {
		return response.Internal(err)
	}
	if items == nil {
		items = []*domain.Item{}
	}
	for _, item := range items {
		h.decorate(item)
	}
	return response.Page(c, items, pagination.NewMeta(p, total))
}

func (h *Handler) Get(c *fiber.Ctx) error {
	item, err := h.load(c)
	if err != nil {
		return err
	}
	return response.OK(c, item)
}

type itemRequest struct {
	CategoryID  *string `json:"categoryId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"priceCents"`
	Available   *bool   `json:"available"`
}

func (r itemRequest) apply(item *domain.Item) {
	if r.CategoryID != nil {
		item.CategoryID = strings.TrimSpace(*r.CategoryID)
	}
	if r.Name != nil {
		item.Name = *r.Name
	}
	if r.Description != nil {
		item.Description = *r.Description
	}
	if r.PriceCents != nil {
		item.PriceCents = *r.PriceCents
	}
	if r.Available != nil {
		item.Available = *r.Available
	}
}

// Create handles POST /api/menu/items. Items are available unless stated otherwise.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	now := h.now()
	item := &domain.Item{ID: uuid.New().String(), Available: true, CreatedAt: now, UpdatedAt: now}
	req.apply(item)
	if err := h.validate(c.UserContext(), item); err != nil {
		return err
	}
	if err := h.items.Create(c.UserContext(), item); err != nil {
		return mapWriteErr(err)
	}
	return response.Created(c, h.decorate(item))
}

// Update handles PUT /api/menu/items/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	item, err := h.load(c)
	if err != nil {
		return err
	}
	req.apply(item)
	if err := h.validate(c.UserContext(), item); err != nil {
		return err
	}
	item.UpdatedAt = h.now()
	if err := h.items.Update(c.UserContext(), item); err != nil {
		return mapWriteErr(err)
	}
	return response.OK(c, h.decorate(item))
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// UpdateAvailability handles PATCH /api/menu/items/:id/availability.
func (h *Handler) UpdateAvailability(c *fiber.Ctx) error {
	var req availabilityRequest
	if err := c.BodyParser(&req); err != nil || req.Available == nil {
		return response.BadRequest("available is required")
	}
	ctx := c.UserContext()
	ok, err := h.items.SetAvailability(ctx, c.Params("id"), *req.Available, h.now())
	if err != nil {
		return response.Internal(err)
	}
	if !ok {
		return response.NotFound("Menu item not found")
	}
	return h.Get(c)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	deleted, err := h.items.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, menurepo.ErrItemInUse) {
			return response.Conflict("Menu item is used by orders; mark it unavailable instead")
		}
		return response.Internal(err)
	}
	if !deleted {
		return response.NotFound("Menu item not found")
	}
	return response.Empty(c)
}

type uploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// ImageUploadURL handles POST /api/menu/items/:id/image-upload-url. The new key is stored on the
// item before the URL is returned.
func (h *Handler) ImageUploadURL(c *fiber.Ctx) error {
	if h.images == nil {
		return response.Unavailable("Image storage is not configured")
	}
	var req uploadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest("invalid request body")
		}
	}
	if req.ContentType != "" && !strings.HasPrefix(req.ContentType, "image/") {
		return response.BadRequest("contentType must be an image type")
	}
	item, err := h.load(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	key := imagestore.ObjectKey(item.ID, req.Filename)
	up, err := h.images.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		return response.Internal(err)
	}
	if _, err := h.items.SetImageKey(ctx, item.ID, key, h.now()); err != nil {
		return response.Internal(err)
	}
	return response.OK(c, up)
}

type publicCategory struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Items       []*domain.Item `json:"items"`
}

type publicMenu struct {
	Restaurant string           `json:"restaurant"`
	Currency   string           `json:"currency"`
	Categories []publicCategory `json:"categories"`
}

// PublicMenu handles GET /api/public/menu. Only active categories with their available items
// are listed; categories keep their sort order and items are ordered by name.
func (h *Handler) PublicMenu(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s, err := h.settings.Current(ctx)
	if err != nil {
		return response.Internal(err)
	}
	cats, err := h.categories.List(ctx, true)
	if err != nil {
		return response.Internal(err)
	}
	items, err := h.items.ListAvailable(ctx)
	if err != nil {
		return response.Internal(err)
	}
	byCategory := make(map[string][]*domain.Item)
	for _, item := range items {
		if !item.Available {
			continue
		}
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], h.decorate(item))
	}
	out := publicMenu{Restaurant: s.RestaurantName, Currency: s.Currency, Categories: []publicCategory{}}
	for _, cat := range cats {
		if !cat.Active {
			continue
		}
		list := byCategory[cat.ID]
		if list == nil {
			list = []*domain.Item{}
		}
		out.Categories = append(out.Categories, publicCategory{
			ID: cat.ID, Name: cat.Name, Description: cat.Description, Items: list,
		})
	}
	return response.OK(c, out)
}

func (h *Handler) validate(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	cat, err := h.categories.GetByID(ctx, item.CategoryID)
	if err != nil {
		return response.Internal(err)
	}
	if cat == nil {
		return response.BadRequest(menurepo.ErrUnknownCategory.Error())
	}
	return nil
}

func (h *Handler) load(c *fiber.Ctx) (*domain.Item, error) {
	item, err := h.items.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, response.Internal(err)
	}
	if item == nil {
		return nil, response.NotFound("Menu item not found")
	}
	return h.decorate(item), nil
}

func (h *Handler) decorate(item *domain.Item) *domain.Item {
	item.ImageURL = domain.ImageURLFor(h.publicBaseURL, item.ImageKey)
	return item
}

func mapWriteErr(err error) error {
	if errors.Is(err, menurepo.ErrUnknownCategory) {
		return response.BadRequest(err.Error())
	}
	return response.Internal(err)
}

func boolPtr(b bool) *bool { return &b }
