package engine

import "context"

// Action is a verb checked against the permission policy.
type Action string

// Resource is a noun checked against the permission policy.
type Resource string

const (
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionUpdateStatus Action = "update_status"
	ActionDelete       Action = "delete"
)

const (
	ResourceUsers      Resource = "users"
	ResourceTables     Resource = "tables"
	ResourceCategories Resource = "categories"
	ResourceMenu       Resource = "menu"
	ResourceOrders     Resource = "orders"
	ResourcePayments   Resource = "payments"
	ResourceKitchen    Resource = "kitchen"
	ResourceDashboard  Resource = "dashboard"
	ResourceSettings   Resource = "settings"
	ResourceAudit      Resource = "audit"
	ResourceTelemetry  Resource = "telemetry"
)

// Evaluator decides whether a staff role may perform action on resource.
type Evaluator interface {
	Allow(ctx context.Context, role string, action Action, resource Resource) (bool, error)
}
