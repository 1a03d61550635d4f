package domain

import (
	"errors"
	"strings"
	"time"
)

// Category groups menu items.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sortOrder"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var ErrNameRequired = errors.New("category name is required")

// Validate trims the name and reports whether c can be stored.
func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}
	c.Description = strings.TrimSpace(c.Description)
	return nil
}
