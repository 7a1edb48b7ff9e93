// Package dashboard implements the device dashboard client: the state and
// operations behind the modbusdash TUI and CLI, independent of any rendering.
//
// A Dashboard is constructed explicitly with a Gateway (normally a
// *gateway.Client) and Options, and is passed to whichever UI drives it.
//
// # Refresh Rules
//
//   - RefreshAll is a no-op while disconnected.
//   - RefreshAll is a no-op for QuietWindow (2s) after the last manual write,
//     so a poll cannot overwrite a value the user just changed.
//   - The three categories are read concurrently and applied independently;
//     a failed read leaves that category's previous snapshot in place.
//   - A successful write schedules exactly one re-read of its own category
//     after ReconcileDelay (500ms). A failed write re-reads immediately.
//     Neither is gated by the quiet window.
//   - Results that arrive after a disconnect or reconnect are discarded.
//
// # Notifications
//
// Every user-visible outcome produces a Notification (info, success, warning
// or error). Only the latest is visible and it disappears after
// NotificationTimeout.
//
// # Rendering
//
// UIs call View() for a ViewModel and re-render whenever an Event arrives on
// Events(). Events are hints; View() is always authoritative.
//
//	d := dashboard.New(gateway.NewClient(url), dashboard.DefaultOptions())
//	defer d.Close()
//	_ = d.LoadNames(ctx)
//	_ = d.Connect(ctx, dashboard.ConnectForm{Host: "10.0.0.5", Port: "502", UnitID: "1"})
package dashboard
