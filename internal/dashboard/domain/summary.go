package domain

import "time"

// Summary is the manager dashboard for one business day.
type Summary struct {
	Date              string         `json:"date"`
	RevenueCents      int64          `json:"revenueCents"`
	PaidOrders        int            `json:"paidOrders"`
	AverageOrderCents int64          `json:"averageOrderCents"`
	OpenOrders        int            `json:"openOrders"`
	Tables            map[string]int `json:"tables"`
	TopItems          []TopItem      `json:"topItems"`
	GeneratedAt       time.Time      `json:"generatedAt"`
}

// TopItem is a menu item ranked by quantity sold.
type TopItem struct {
	MenuItemID   string `json:"menuItemId"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	RevenueCents int64  `json:"revenueCents"`
}
