// Package service assembles the manager dashboard.
package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"restaurant-pos/backend/internal/dashboard/domain"
	dashboardrepo "restaurant-pos/backend/internal/dashboard/repository"
	tabledomain "restaurant-pos/backend/internal/table/domain"
)

const topItemsLimit = 5

// TableCounter counts dining tables per status.
type TableCounter interface {
	CountByStatus(ctx context.Context) (map[tabledomain.Status]int, error)
}

type DashboardService struct {
	repo   dashboardrepo.Repository
	tables TableCounter
	loc    *time.Location
	now    func() time.Time
}

// NewDashboardService returns the dashboard service. Days start at midnight in loc (time.Local when nil).
func NewDashboardService(repo dashboardrepo.Repository, tables TableCounter, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{repo: repo, tables: tables, loc: loc, now: time.Now}
}

// Summary runs the independent reads concurrently; the first error cancels the rest.
func (s *DashboardService) Summary(ctx context.Context) (*domain.Summary, error) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	out := &domain.Summary{Date: from.Format(time.DateOnly), GeneratedAt: now.UTC()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cents, n, err := s.repo.Revenue(gctx, from, to)
		out.RevenueCents, out.PaidOrders = cents, n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOpenOrders(gctx)
		out.OpenOrders = n
		return err
	})
	g.Go(func() error {
		items, err := s.repo.TopItems(gctx, from, to, topItemsLimit)
		out.TopItems = items
		return err
	})
	g.Go(func() error {
		counts, err := s.tables.CountByStatus(gctx)
		if err != nil {
			return err
		}
		out.Tables = make(map[string]int, len(counts))
		for status, n := range counts {
			out.Tables[string(status)] = n
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.PaidOrders > 0 {
		out.AverageOrderCents = out.RevenueCents / int64(out.PaidOrders)
	}
	if out.TopItems == nil {
		out.TopItems = []domain.TopItem{}
	}
	return out, nil
}
