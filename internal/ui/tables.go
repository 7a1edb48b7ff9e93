package ui

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/muurk/modbusdash/internal/dashboard"
	"github.com/muurk/modbusdash/internal/discovery"
	"github.com/muurk/modbusdash/internal/names"
)

// TableOptions controls go-pretty rendering
type TableOptions struct {
	// Color enables ANSI colors for ON/OFF values and headers
	Color bool
}

func newTable(opts TableOptions) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignLeft
	if opts.Color {
		t.Style().Color.Header = text.Colors{text.FgHiMagenta, text.Bold}
		t.Style().Color.Border = text.Colors{text.FgHiBlack}
		t.Style().Color.Separator = text.Colors{text.FgHiBlack}
	}
	return t
}

// RenderCategory renders one dashboard table. Empty tables show their
// placeholder in place of rows.
func RenderCategory(tv dashboard.TableView, opts TableOptions) string {
	t := newTable(opts)
	t.SetTitle(tv.Title)
	t.AppendHeader(table.Row{"Addr", "Name", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	if len(tv.Rows) == 0 {
		t.AppendRow(table.Row{"", tv.Placeholder, ""})
		return t.Render()
	}

	for _, r := range tv.Rows {
		value := r.Value
		if opts.Color && tv.Category != names.Registers {
			if r.On {
				value = text.Colors{text.FgGreen, text.Bold}.Sprint(value)
			} else {
				value = text.Colors{text.FgHiBlack}.Sprint(value)
			}
		}
		t.AppendRow(table.Row{r.Address, r.Label, value})
	}
	return t.Render()
}

// RenderNames renders the name table, marking custom names with '*'
func RenderNames(tbl names.Table, only names.Category, opts TableOptions) string {
	t := newTable(opts)
	t.SetTitle("Names")
	t.AppendHeader(table.Row{"Category", "Addr", "Name", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, Align: text.AlignRight},
	})

	for _, c := range names.Categories {
		if only != "" && c != only {
			continue
		}
		for _, addr := range tbl.Addresses(c) {
			custom := ""
			if tbl.Label(c, addr) != names.DefaultLabel(c, addr) {
				custom = "*"
			}
			t.AppendRow(table.Row{c.Title(), addr, tbl.Label(c, addr), custom})
		}
		t.AppendSeparator()
	}
	return t.Render()
}

// RenderGateways renders discovered gateways, numbered from 1
func RenderGateways(gws []*discovery.Gateway, opts TableOptions) string {
	t := newTable(opts)
	t.SetTitle("Gateways")
	t.AppendHeader(table.Row{"#", "Name", "URL", "Host"})
	for i, gw := range gws {
		t.AppendRow(table.Row{strconv.Itoa(i + 1), gw.Instance, gw.BaseURL(), gw.Hostname})
	}
	if len(gws) == 0 {
		t.AppendRow(table.Row{"", "No gateways found", "", ""})
	}
	return t.Render()
}
