package dashboard

import (
	"sort"
	"strconv"
	"time"

	"github.com/muurk/modbusdash/internal/names"
)

// Row is one address line in a category table
type Row struct {
	Address  int
	Label    string
	Value    string
	On       bool
	Number   int
	Writable bool
	Editing  bool
}

// TableView is the render state of one category
type TableView struct {
	Category    names.Category
	Title       string
	Rows        []Row
	Placeholder string
	Editing     bool
}

// ViewModel is everything a UI needs to draw the dashboard
type ViewModel struct {
	State        ConnectionState
	GatewayURL   string
	AutoRefresh  bool
	LastRefresh  time.Time
	Notification *Notification
	Tables       []TableView
}

// Table returns the view of one category
func (v ViewModel) Table(c names.Category) TableView {
	for _, t := range v.Tables {
		if t.Category == c {
			return t
		}
	}
	return TableView{Category: c, Title: c.Title()}
}

// View captures the current render state
func (d *Dashboard) View() ViewModel {
	d.mu.Lock()
	defer d.mu.Unlock()

	vm := ViewModel{
		State:       d.state,
		GatewayURL:  d.opts.GatewayURL,
		AutoRefresh: d.autoRefresh,
		LastRefresh: d.lastRefresh,
	}
	if d.notification != nil {
		n := *d.notification
		vm.Notification = &n
	}

	for _, c := range names.Categories {
		vm.Tables = append(vm.Tables, d.tableViewLocked(c))
	}
	return vm
}

func (d *Dashboard) tableViewLocked(c names.Category) TableView {
	tv := TableView{
		Category: c,
		Title:    c.Title(),
		Editing:  d.editing[c],
	}

	if d.state != Connected {
		tv.Placeholder = "Connect to view " + string(c)
		return tv
	}

	switch c {
	case names.Inputs, names.Coils:
		bits := d.snapshot.Inputs
		if c == names.Coils {
			bits = d.snapshot.Coils
		}
		if bits == nil {
			tv.Placeholder = "Waiting for " + string(c) + "..."
			return tv
		}
		for _, addr := range sortedKeys(bits) {
			tv.Rows = append(tv.Rows, Row{
				Address:  addr,
				Label:    d.table.Label(c, addr),
				Value:    onOff(bits[addr]),
				On:       bits[addr],
				Writable: c.Writable(),
				Editing:  tv.Editing,
			})
		}
	case names.Registers:
		regs := d.snapshot.Registers
		if regs == nil {
			tv.Placeholder = "Waiting for " + string(c) + "..."
			return tv
		}
		for _, addr := range sortedKeys(regs) {
			tv.Rows = append(tv.Rows, Row{
				Address:  addr,
				Label:    d.table.Label(c, addr),
				Value:    strconv.Itoa(regs[addr]),
				Number:   regs[addr],
				Writable: true,
				Editing:  tv.Editing,
			})
		}
	}

	if len(tv.Rows) == 0 {
		tv.Placeholder = "No " + string(c) + " reported"
	}
	return tv
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
