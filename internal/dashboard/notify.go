package dashboard

import "time"

// Severity classifies a notification
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Icon returns the fixed glyph shown in front of the message
func (s Severity) Icon() string {
	switch s {
	case SeveritySuccess:
		return "✓"
	case SeverityWarning:
		return "⚠"
	case SeverityError:
		return "✗"
	default:
		return "ℹ"
	}
}

// Color returns the fixed banner color as a hex string
func (s Severity) Color() string {
	switch s {
	case SeveritySuccess:
		return "#43BF6D"
	case SeverityWarning:
		return "#FFA500"
	case SeverityError:
		return "#FF0000"
	default:
		return "#7D56F4"
	}
}

// Notification is a transient user-facing message.
// At most one is visible at a time.
type Notification struct {
	Severity Severity
	Message  string
	At       time.Time
}

// String renders the notification with its icon
func (n Notification) String() string {
	return n.Severity.Icon() + " " + n.Message
}
