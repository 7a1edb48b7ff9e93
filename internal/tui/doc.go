// Package tui implements the full-screen terminal dashboard for a Modbus
// HTTP gateway.
//
// It is a thin Bubble Tea front end over internal/dashboard: every piece of
// device state, every notification and every gateway call lives in the
// dashboard.Dashboard, and the models here only track focus, cursors and
// open prompts. Dashboard events arrive as tea messages so the screen
// re-renders whenever a refresh, write or name change lands.
//
// # Screens
//
//   - Discovery: mDNS scan for gateways, or a URL typed by hand
//   - Dashboard: connect form, Inputs/Coils/Registers tabs, name editing
//     and the notification toast
//
// Both screens render inside RenderApplicationContainer so the header and
// footer stay in place when switching between them.
//
// # Usage
//
//	err := tui.Run(ctx, tui.Options{
//	    GatewayURL: "http://localhost:5000",
//	    Dashboard:  dashboard.DefaultOptions(),
//	})
//
// Blocking dashboard operations run inside tea.Cmds, never in Update.
package tui
