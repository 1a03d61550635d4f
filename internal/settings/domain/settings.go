package domain

import (
	"errors"
	"strings"
	"time"
)

// Settings are the restaurant-wide values stored in the settings table, falling back to config
// for missing keys.
type Settings struct {
	RestaurantName string    `json:"restaurantName"`
	TaxRateBps     int       `json:"taxRateBps"`
	Currency       string    `json:"currency"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

const MaxTaxRateBps = 10000

var (
	ErrRestaurantNameRequired = errors.New("restaurant name is required")
	ErrInvalidTaxRate         = errors.New("tax rate must be between 0 and 10000 basis points")
	ErrInvalidCurrency        = errors.New("currency must be a 3-letter code")
)

// Validate normalizes s (trimmed name, upper-case currency) and checks its ranges.
func (s *Settings) Validate() error {
	s.RestaurantName = strings.TrimSpace(s.RestaurantName)
	if s.RestaurantName == "" {
		return ErrRestaurantNameRequired
	}
	if s.TaxRateBps < 0 || s.TaxRateBps > MaxTaxRateBps {
		return ErrInvalidTaxRate
	}
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if len(s.Currency) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range s.Currency {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	return nil
}
