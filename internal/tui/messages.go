package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/modbusdash/internal/dashboard"
)

// dashboardEventMsg carries one dashboard event into the tea loop
type dashboardEventMsg struct {
	src   <-chan dashboard.Event
	event dashboard.Event
}

// eventsClosedMsg means the dashboard was closed
type eventsClosedMsg struct {
	src <-chan dashboard.Event
}

// opDoneMsg reports the end of a blocking dashboard operation
type opDoneMsg struct {
	op  string
	err error
}

// waitForEvent blocks on the next dashboard event. The handler re-issues it
// after every event, which keeps exactly one reader on the channel.
func waitForEvent(ch <-chan dashboard.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{src: ch}
		}
		return dashboardEventMsg{src: ch, event: ev}
	}
}

// runOp runs f off the UI goroutine
func runOp(op string, f func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: f()}
	}
}
