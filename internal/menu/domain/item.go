package domain

import (
	"errors"
	"strings"
	"time"
)

// Item is a menu item. Prices are integer cents.
type Item struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"priceCents"`
	Available   bool      `json:"available"`
	ImageKey    string    `json:"imageKey,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	ErrNameRequired     = errors.New("item name is required")
	ErrCategoryRequired = errors.New("categoryId is required")
	ErrInvalidPrice     = errors.New("price must be 0 or greater")
)

func (i *Item) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	i.Description = strings.TrimSpace(i.Description)
	if i.Name == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(i.CategoryID) == "" {
		return ErrCategoryRequired
	}
	if i.PriceCents < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// ImageURLFor joins a public base URL and an object key. Either being empty yields "".
func ImageURLFor(baseURL, key string) string {
	if baseURL == "" || key == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

// ListFilter narrows item listings. Zero values match everything.
type ListFilter struct {
	CategoryID string
	Available  *bool
	// Query matches name or description, case-insensitively.
	Query string
}
