// Package ui renders the modbusdash CLI output: lipgloss result boxes,
// go-pretty tables for dashboard snapshots and names, and a typed
// confirmation prompt for destructive commands.
//
// Everything here renders to strings or an io.Writer. The interactive
// dashboard lives in package tui.
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintSuccess("Connected", ui.D("Device", "10.0.0.5:502"), ui.D("Unit", "1"))
//	p.Println(ui.RenderCategory(vm.Table(names.Coils), ui.TableOptions{Color: true}))
//
// Logging is silent unless MODBUSDASH_LOG_LEVEL is set, so this output is
// all the user sees.
package ui
