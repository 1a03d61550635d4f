package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// segmentResource maps the first path segment after /api to an audit resource name.
var segmentResource = map[string]string{
	"users":      "user",
	"tables":     "table",
	"categories": "category",
	"orders":     "order",
	"settings":   "settings",
	"kitchen":    "kitchen",
}

// ParseRoute returns action and resource for an HTTP method and route pattern
// (e.g. PATCH /api/tables/:id/status -> update_status on table).
// Route patterns are the registered ones with :params, not concrete paths.
func ParseRoute(method, route string) ActionResource {
	path := strings.Trim(strings.TrimPrefix(route, "/api"), "/")
	if path == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	segs := strings.Split(path, "/")

	resource, rest := segs[0], segs[1:]
	if resource == "menu" && len(rest) > 0 && rest[0] == "items" {
		resource, rest = "menu_item", rest[1:]
	} else if r, ok := segmentResource[resource]; ok {
		resource = r
	}

	// Drop the :id of the addressed row; what remains names a sub-action.
	if len(rest) > 0 && strings.HasPrefix(rest[0], ":") {
		rest = rest[1:]
	}
	var sub string
	if len(rest) > 0 {
		sub = strings.ReplaceAll(rest[0], "-", "_")
	}

	switch {
	case sub == "items" && method == "POST":
		return ActionResource{Action: "add_item", Resource: resource}
	case sub == "items" && method == "DELETE":
		return ActionResource{Action: "remove_item", Resource: resource}
	case sub != "" && (method == "PATCH" || method == "PUT"):
		return ActionResource{Action: "update_" + sub, Resource: resource}
	case sub != "":
		return ActionResource{Action: sub, Resource: resource}
	}
	return ActionResource{Action: methodToAction(method), Resource: resource}
}

func methodToAction(method string) string {
	switch method {
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	case "GET":
		return "get"
	default:
		return strings.ToLower(method)
	}
}
