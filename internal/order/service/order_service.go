// Package service implements order taking, the kitchen flow and payment.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"restaurant-pos/backend/internal/order/domain"
	settingsdomain "restaurant-pos/backend/internal/settings/domain"
	tabledomain "restaurant-pos/backend/internal/table/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrTableNotFound = errors.New("table not found")
	ErrLineNotFound  = errors.New("order item not found")
	// ErrNotEditable is returned when lines are changed on an order that is no longer pending.
	ErrNotEditable = errors.New("items can only be changed while the order is pending")
)

// ItemError reports a requested menu item that cannot be ordered.
type ItemError struct {
	MenuItemID string
	Reason     string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("menu item %s %s", e.MenuItemID, e.Reason)
}

// SettingsReader returns the effective restaurant settings.
type SettingsReader interface {
	Current(ctx context.Context) (*settingsdomain.Settings, error)
}

// LineInput is one requested order line.
type LineInput struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note"`
}

type CreateInput struct {
	WaiterID string
	TableID  string
	Note     string
	Items    []LineInput
}

type OrderService struct {
	tx       Transactor
	read     Repos
	settings SettingsReader
	now      func() time.Time
}

// NewOrderService returns the order service. read is used for queries outside a transaction.
func NewOrderService(tx Transactor, read Repos, settings SettingsReader) *OrderService {
	return &OrderService{tx: tx, read: read, settings: settings, now: func() time.Time { return time.Now().UTC() }}
}

// Create opens an order. An available or reserved table becomes occupied.
func (s *OrderService) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrNoItems
	}
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}
	rate, err := s.taxRate(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o := &domain.Order{
		ID:        uuid.New().String(),
		WaiterID:  in.WaiterID,
		Status:    domain.StatusPending,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.tx.InTx(ctx, func(r Repos) error {
		lines, err := buildLines(ctx, r, o.ID, in.Items, now)
		if err != nil {
			return err
		}
		o.Items = lines
		o.Totals(rate)
		if tableID := strings.TrimSpace(in.TableID); tableID != "" {
			t, err := r.Tables.GetByID(ctx, tableID)
			if err != nil {
				return err
			}
			if t == nil {
				return ErrTableNotFound
			}
			o.TableID = &t.ID
			if t.Status == tabledomain.StatusAvailable || t.Status == tabledomain.StatusReserved {
				if _, err := r.Tables.SetStatus(ctx, t.ID, tabledomain.StatusOccupied); err != nil {
					return err
				}
			}
		}
		return r.Orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.read.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.Order, int, error) {
	return s.read.Orders.List(ctx, f, limit, offset)
}

// Kitchen returns pending, preparing and ready orders, oldest first.
func (s *OrderService) Kitchen(ctx context.Context) ([]*domain.Order, error) {
	return s.read.Orders.ListByStatus(ctx, domain.KitchenStatuses)
}

// AddItems appends lines to a pending order and recomputes its totals.
func (s *OrderService) AddItems(ctx context.Context, orderID string, items []LineInput) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}
	if err := validateLines(items); err != nil {
		return nil, err
	}
	rate, err := s.taxRate(ctx)
	if err != nil {
		return nil, err
	}
	var out *domain.Order
	err = s.tx.InTx(ctx, func(r Repos) error {
		o, err := editable(ctx, r, orderID)
		if err != nil {
			return err
		}
		now := s.now()
		lines, err := buildLines(ctx, r, o.ID, items, now)
		if err != nil {
			return err
		}
		if err := r.Orders.AddItems(ctx, lines); err != nil {
			return err
		}
		o.Items = append(o.Items, lines...)
		o.Totals(rate)
		o.UpdatedAt = now
		out = o
		return r.Orders.UpdateTotals(ctx, o)
	})
	return out, err
}

// RemoveItem deletes one line from a pending order and recomputes its totals.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, lineID string) (*domain.Order, error) {
	rate, err := s.taxRate(ctx)
	if err != nil {
		return nil, err
	}
	var out *domain.Order
	err = s.tx.InTx(ctx, func(r Repos) error {
		o, err := editable(ctx, r, orderID)
		if err != nil {
			return err
		}
		ok, err := r.Orders.RemoveItem(ctx, o.ID, lineID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLineNotFound
		}
		kept := o.Items[:0]
		for _, it := range o.Items {
			if it.ID != lineID {
				kept = append(kept, it)
			}
		}
		o.Items = kept
		o.Totals(rate)
		o.UpdatedAt = s.now()
		out = o
		return r.Orders.UpdateTotals(ctx, o)
	})
	return out, err
}

// UpdateStatus moves an order along the status machine. Paid is reached through Pay only.
// A cancelled order releases its table when no other order is open on it.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, to domain.Status) (*domain.Order, error) {
	if !to.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if to == domain.StatusPaid {
		return nil, domain.ErrInvalidTransition
	}
	var out *domain.Order
	err := s.tx.InTx(ctx, func(r Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if !o.Status.CanTransition(to) {
			return domain.ErrInvalidTransition
		}
		now := s.now()
		if err := r.Orders.UpdateStatus(ctx, o.ID, to, now); err != nil {
			return err
		}
		o.Status, o.UpdatedAt = to, now
		out = o
		if to == domain.StatusCancelled {
			return releaseTable(ctx, r, o, tabledomain.StatusAvailable)
		}
		return nil
	})
	return out, err
}

// Pay closes a ready or served order. Its table moves to cleaning when no other order is open on it.
func (s *OrderService) Pay(ctx context.Context, orderID string, method domain.PaymentMethod) (*domain.Order, error) {
	if !method.Valid() {
		return nil, domain.ErrInvalidPayment
	}
	var out *domain.Order
	err := s.tx.InTx(ctx, func(r Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if !o.Status.Payable() {
			return domain.ErrInvalidTransition
		}
		now := s.now()
		if err := r.Orders.MarkPaid(ctx, o.ID, method, now); err != nil {
			return err
		}
		o.Status, o.PaymentMethod, o.PaidAt, o.UpdatedAt = domain.StatusPaid, method, &now, now
		out = o
		return releaseTable(ctx, r, o, tabledomain.StatusCleaning)
	})
	return out, err
}

func (s *OrderService) taxRate(ctx context.Context) (int, error) {
	if s.settings == nil {
		return 0, nil
	}
	st, err := s.settings.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	return st.TaxRateBps, nil
}

func editable(ctx context.Context, r Repos, orderID string) (*domain.Order, error) {
	o, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.Status != domain.StatusPending {
		return nil, ErrNotEditable
	}
	return o, nil
}

func releaseTable(ctx context.Context, r Repos, o *domain.Order, next tabledomain.Status) error {
	if o.TableID == nil {
		return nil
	}
	n, err := r.Orders.CountOpenForTable(ctx, *o.TableID, o.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.Tables.SetStatus(ctx, *o.TableID, next)
	return err
}

func validateLines(items []LineInput) error {
	for _, it := range items {
		if strings.TrimSpace(it.MenuItemID) == "" {
			return &ItemError{MenuItemID: "<empty>", Reason: "is required"}
		}
		if it.Quantity < domain.MinQuantity || it.Quantity > domain.MaxQuantity {
			return domain.ErrInvalidQuantity
		}
	}
	return nil
}

// buildLines snapshots menu names and prices into new order lines.
func buildLines(ctx context.Context, r Repos, orderID string, items []LineInput, at time.Time) ([]domain.Item, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, strings.TrimSpace(it.MenuItemID))
	}
	menu, err := r.Menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.Item, 0, len(items))
	for i, it := range items {
		m, ok := menu[ids[i]]
		if !ok {
			return nil, &ItemError{MenuItemID: ids[i], Reason: "does not exist"}
		}
		if !m.Available {
			return nil, &ItemError{MenuItemID: ids[i], Reason: "is not available"}
		}
		lines = append(lines, domain.Item{
			ID:             uuid.New().String(),
			OrderID:        orderID,
			MenuItemID:     m.ID,
			Name:           m.Name,
			UnitPriceCents: m.PriceCents,
			Quantity:       it.Quantity,
			Note:           strings.TrimSpace(it.Note),
			CreatedAt:      at,
		})
	}
	return lines, nil
}
