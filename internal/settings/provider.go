// Package settings resolves restaurant settings from the database with config fallbacks.
package settings

import (
	"context"
	"time"

	"restaurant-pos/backend/internal/config"
	"restaurant-pos/backend/internal/settings/domain"
	settingsrepo "restaurant-pos/backend/internal/settings/repository"
)

// Provider reads and writes settings. The zero value is not usable; use NewProvider.
type Provider struct {
	repo     settingsrepo.Repository
	defaults domain.Settings
	now      func() time.Time
}

// Defaults returns the fallback settings taken from cfg.
func Defaults(cfg *config.Config) domain.Settings {
	return domain.Settings{
		RestaurantName: cfg.RestaurantName,
		TaxRateBps:     cfg.DefaultTaxRateBps,
		Currency:       cfg.Currency,
	}
}

func NewProvider(repo settingsrepo.Repository, defaults domain.Settings) *Provider {
	return &Provider{repo: repo, defaults: defaults, now: func() time.Time { return time.Now().UTC() }}
}

// Current returns the effective settings.
func (p *Provider) Current(ctx context.Context) (*domain.Settings, error) {
	return p.repo.Get(ctx, p.defaults)
}

// Update validates s and stores it.
func (p *Provider) Update(ctx context.Context, s domain.Settings) (*domain.Settings, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.UpdatedAt = p.now()
	if err := p.repo.Put(ctx, s, s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
