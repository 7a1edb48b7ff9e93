package dashboard

import "github.com/muurk/modbusdash/internal/names"

// EventKind says which part of the view changed
type EventKind int

const (
	EventConnectionChanged EventKind = iota
	EventTableUpdated
	EventNamesChanged
	EventNotification
	EventAutoRefreshChanged
	EventRefreshed
)

// String returns a short name for logs
func (k EventKind) String() string {
	switch k {
	case EventConnectionChanged:
		return "connection"
	case EventTableUpdated:
		return "table"
	case EventNamesChanged:
		return "names"
	case EventNotification:
		return "notification"
	case EventAutoRefreshChanged:
		return "auto_refresh"
	case EventRefreshed:
		return "refreshed"
	default:
		return "unknown"
	}
}

// Event tells a UI that it should re-render from View().
// Category is set for table and editing changes.
type Event struct {
	Kind     EventKind
	Category names.Category
}
