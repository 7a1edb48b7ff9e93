package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/modbusdash/internal/dashboard"
	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/logging"
	"github.com/muurk/modbusdash/internal/names"
)

type focusArea int

const (
	focusForm focusArea = iota
	focusTables
)

// inputMode is the one-line prompt currently open, if any
type inputMode int

const (
	modeNormal inputMode = iota
	modeRename
	modeRegister
	modeImport
	modeExport
	modeConfirmReset
)

const (
	fieldHost = iota
	fieldPort
	fieldUnit
	fieldCount
)

var fieldLabels = [fieldCount]string{"Host", "Port", "Unit ID"}

// DashboardModel is the main screen: connection form, category tabs and the
// notification toast. All state lives in the dashboard.Dashboard; this model
// only tracks focus, cursors and prompts.
type DashboardModel struct {
	Dash       *dashboard.Dashboard
	GatewayURL string
	ctx        context.Context

	Width  int
	Height int

	Focus     focusArea
	Form      [fieldCount]textinput.Model
	FormField int

	Category int
	Cursors  [3]int

	Mode       inputMode
	Prompt     textinput.Model
	promptAddr int

	Busy     int
	Spinner  spinner.Model
	ShowHelp bool

	Help       help.Model
	Keys       tableKeyMap
	FormKeys   formKeyMap
	PromptKeys promptKeyMap

	// OnConnected runs on the UI goroutine after a successful connect
	OnConnected func(form dashboard.ConnectForm)

	BackRequested bool
}

// NewDashboardModel creates the dashboard screen with the form pre-filled
func NewDashboardModel(ctx context.Context, d *dashboard.Dashboard, gatewayURL string, form dashboard.ConnectForm) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := DashboardModel{
		Dash:       d,
		GatewayURL: gatewayURL,
		ctx:        ctx,
		Focus:      focusForm,
		Spinner:    s,
		Help:       help.New(),
		Keys:       newTableKeyMap(),
		FormKeys:   newFormKeyMap(),
		PromptKeys: newPromptKeyMap(),
	}

	values := [fieldCount]string{form.Host, form.Port, form.UnitID}
	placeholders := [fieldCount]string{"localhost", "502", "1"}
	limits := [fieldCount]int{253, 5, 3}
	for i := range m.Form {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = limits[i]
		in.Width = 30
		in.SetValue(values[i])
		m.Form[i] = in
	}
	m.Form[fieldHost].Focus()

	m.Prompt = textinput.New()
	m.Prompt.Width = 50

	return m
}

// Init subscribes to dashboard events and syncs with the gateway
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.Dash.Events()),
		m.Spinner.Tick,
		runOp("sync", m.sync),
	)
}

// sync loads names and adopts a session the gateway already holds
func (m DashboardModel) sync() error {
	_ = m.Dash.LoadNames(m.ctx)
	connected, err := m.Dash.CheckStatus(m.ctx)
	if err != nil || !connected {
		return err
	}
	if _, err := m.Dash.RefreshAll(m.ctx); err != nil {
		logging.Warn("Initial refresh incomplete", zap.Error(err))
	}
	return nil
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width - 6
		return m, nil

	case dashboardEventMsg:
		// Events from a dashboard this screen no longer shows are dropped
		// without re-subscribing
		if msg.src != m.Dash.Events() {
			return m, nil
		}
		if msg.event.Kind == dashboard.EventConnectionChanged {
			m = m.followConnection()
		}
		m.clampCursor()
		return m, waitForEvent(m.Dash.Events())

	case eventsClosedMsg:
		return m, nil

	case opDoneMsg:
		if m.Busy > 0 {
			m.Busy--
		}
		if msg.op == "sync" && m.Dash.State() == dashboard.Connected {
			m = m.followConnection()
		}
		if msg.op == "connect" && msg.err == nil && m.OnConnected != nil {
			m.OnConnected(m.formValues())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.ShowHelp {
			m.ShowHelp = false
			return m, nil
		}
		if m.Mode != modeNormal {
			return m.updatePrompt(msg)
		}
		if m.Focus == focusForm {
			return m.updateForm(msg)
		}
		return m.updateTables(msg)
	}

	return m, nil
}

// followConnection moves focus to the tables on connect and back to the
// form on disconnect
func (m DashboardModel) followConnection() DashboardModel {
	if m.Dash.State() == dashboard.Connected {
		m.Focus = focusTables
		for i := range m.Form {
			m.Form[i].Blur()
		}
		return m
	}
	m.Focus = focusForm
	m.Form[m.FormField].Focus()
	return m
}

func (m DashboardModel) formValues() dashboard.ConnectForm {
	return dashboard.ConnectForm{
		Host:   m.Form[fieldHost].Value(),
		Port:   m.Form[fieldPort].Value(),
		UnitID: m.Form[fieldUnit].Value(),
	}
}

func (m DashboardModel) startOp(op string, f func(ctx context.Context) error) (DashboardModel, tea.Cmd) {
	m.Busy++
	ctx := m.ctx
	return m, runOp(op, func() error { return f(ctx) })
}

func (m DashboardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.FormKeys.Connect):
		form := m.formValues()
		return m.startOp("connect", func(ctx context.Context) error {
			return m.Dash.Connect(ctx, form)
		})

	case key.Matches(msg, m.FormKeys.Next):
		return m.focusField((m.FormField + 1) % fieldCount), nil

	case key.Matches(msg, m.FormKeys.Prev):
		return m.focusField((m.FormField + fieldCount - 1) % fieldCount), nil

	case key.Matches(msg, m.FormKeys.Leave):
		m.Form[m.FormField].Blur()
		m.Focus = focusTables
		return m, nil
	}

	var cmd tea.Cmd
	m.Form[m.FormField], cmd = m.Form[m.FormField].Update(msg)
	return m, cmd
}

func (m DashboardModel) focusField(i int) DashboardModel {
	m.Form[m.FormField].Blur()
	m.FormField = i
	m.Form[i].Focus()
	return m
}

func (m DashboardModel) updateTables(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := names.Categories[m.Category]

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.ShowHelp = true

	case key.Matches(msg, m.Keys.NextTab):
		m.Category = (m.Category + 1) % len(names.Categories)

	case key.Matches(msg, m.Keys.PrevTab):
		m.Category = (m.Category + len(names.Categories) - 1) % len(names.Categories)

	case key.Matches(msg, m.Keys.Up):
		m.Cursors[m.Category]--
		m.clampCursor()

	case key.Matches(msg, m.Keys.Down):
		m.Cursors[m.Category]++
		m.clampCursor()

	case key.Matches(msg, m.Keys.Activate):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if m.Dash.Editing(c) {
			return m.openPrompt(modeRename, row.Address, row.Label), nil
		}
		switch c {
		case names.Coils:
			addr, value := row.Address, !row.On
			return m.startOp("write", func(ctx context.Context) error {
				return m.Dash.WriteCoil(ctx, addr, value)
			})
		case names.Registers:
			return m.openPrompt(modeRegister, row.Address, strconv.Itoa(row.Number)), nil
		}

	case key.Matches(msg, m.Keys.Rename):
		if row, ok := m.selectedRow(); ok {
			return m.openPrompt(modeRename, row.Address, row.Label), nil
		}

	case key.Matches(msg, m.Keys.EditNames):
		m.Dash.ToggleEditing(c)

	case key.Matches(msg, m.Keys.Refresh):
		return m.startOp("refresh", func(ctx context.Context) error {
			_, err := m.Dash.RefreshAll(ctx)
			return err
		})

	case key.Matches(msg, m.Keys.Auto):
		m.Dash.ToggleAutoRefresh()

	case key.Matches(msg, m.Keys.Form):
		m.Focus = focusForm
		m.Form[m.FormField].Focus()

	case key.Matches(msg, m.Keys.Disconnect):
		return m.startOp("disconnect", m.Dash.Disconnect)

	case key.Matches(msg, m.Keys.Save):
		return m.startOp("save", m.Dash.SaveNames)

	case key.Matches(msg, m.Keys.Load):
		return m.startOp("load", m.Dash.ReloadNames)

	case key.Matches(msg, m.Keys.Reset):
		m.Mode = modeConfirmReset

	case key.Matches(msg, m.Keys.Export):
		return m.openPrompt(modeExport, 0, gateway.DefaultExportName), nil

	case key.Matches(msg, m.Keys.Import):
		m = m.openPrompt(modeImport, 0, "")
		m.Prompt.Placeholder = "path/to/modbus_names.json"
		return m, nil

	case key.Matches(msg, m.Keys.Gateways):
		m.BackRequested = true

	case key.Matches(msg, m.Keys.Dismiss):
		m.Dash.DismissNotification()
	}

	return m, nil
}

func (m DashboardModel) openPrompt(mode inputMode, addr int, value string) DashboardModel {
	m.Mode = mode
	m.promptAddr = addr
	m.Prompt.Placeholder = ""
	m.Prompt.SetValue(value)
	m.Prompt.CursorEnd()
	m.Prompt.Focus()
	return m
}

// closePrompt leaves prompt mode and clears whatever was typed
func (m DashboardModel) closePrompt() DashboardModel {
	m.Mode = modeNormal
	m.Prompt.SetValue("")
	m.Prompt.Blur()
	return m
}

func (m DashboardModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Mode == modeConfirmReset {
		m.Mode = modeNormal
		if msg.String() == "y" || msg.String() == "Y" {
			return m.startOp("reset", m.Dash.ResetNames)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.PromptKeys.Cancel):
		return m.closePrompt(), nil
	case key.Matches(msg, m.PromptKeys.Confirm):
		return m.submitPrompt()
	}

	var cmd tea.Cmd
	m.Prompt, cmd = m.Prompt.Update(msg)
	return m, cmd
}

func (m DashboardModel) submitPrompt() (tea.Model, tea.Cmd) {
	mode, addr, value := m.Mode, m.promptAddr, m.Prompt.Value()
	c := names.Categories[m.Category]
	m = m.closePrompt()

	switch mode {
	case modeRename:
		return m.startOp("rename", func(ctx context.Context) error {
			return m.Dash.SetName(ctx, c, addr, value)
		})

	case modeRegister:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			m.Dash.Notify(dashboard.SeverityWarning, "Register value must be a number")
			return m, nil
		}
		return m.startOp("write", func(ctx context.Context) error {
			return m.Dash.WriteRegister(ctx, addr, n)
		})

	case modeExport:
		path := strings.TrimSpace(value)
		if path == "" {
			path = gateway.DefaultExportName
		}
		return m.startOp("export", func(ctx context.Context) error {
			return exportNames(ctx, m.Dash, path)
		})

	case modeImport:
		path := strings.TrimSpace(value)
		if path == "" {
			m.Dash.Notify(dashboard.SeverityWarning, "No file selected")
			return m, nil
		}
		return m.startOp("import", func(ctx context.Context) error {
			return importNames(ctx, m.Dash, path)
		})
	}
	return m, nil
}

func exportNames(ctx context.Context, d *dashboard.Dashboard, path string) error {
	f, err := os.Create(path)
	if err != nil {
		d.Notify(dashboard.SeverityError, "Failed to export names: "+err.Error())
		return err
	}
	if _, err := d.ExportNames(ctx, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func importNames(ctx context.Context, d *dashboard.Dashboard, path string) error {
	f, err := os.Open(path)
	if err != nil {
		d.Notify(dashboard.SeverityError, "Failed to import names: "+err.Error())
		return err
	}
	defer f.Close()
	return d.ImportNames(ctx, filepath.Base(path), f)
}

func (m DashboardModel) selectedRow() (dashboard.Row, bool) {
	tv := m.Dash.View().Table(names.Categories[m.Category])
	i := m.Cursors[m.Category]
	if i < 0 || i >= len(tv.Rows) {
		return dashboard.Row{}, false
	}
	return tv.Rows[i], true
}

func (m *DashboardModel) clampCursor() {
	vm := m.Dash.View()
	for i, c := range names.Categories {
		n := len(vm.Table(c).Rows)
		switch {
		case n == 0:
			m.Cursors[i] = 0
		case m.Cursors[i] < 0:
			m.Cursors[i] = n - 1
		case m.Cursors[i] >= n:
			m.Cursors[i] = 0
		}
	}
}

// IsBackRequested reports whether the user asked for the gateway list
func (m DashboardModel) IsBackRequested() bool {
	return m.BackRequested
}

// View renders the dashboard screen
func (m DashboardModel) View() string {
	vm := m.Dash.View()
	width := m.Width
	if width <= 0 {
		width = defaultWidth
	}

	var footer string
	switch {
	case m.ShowHelp:
		h := m.Help
		h.ShowAll = true
		footer = h.View(m.Keys)
	case m.Mode != modeNormal:
		footer = m.Help.View(m.PromptKeys)
	case m.Focus == focusForm:
		footer = m.Help.View(m.FormKeys)
	default:
		footer = m.Help.View(m.Keys)
	}

	sections := []string{m.renderConnection(vm, width)}
	if toast := RenderToast(vm.Notification); toast != "" {
		sections = append(sections, toast)
	}
	sections = append(sections, m.renderTabs(vm), m.renderTable(vm, width))
	if p := m.renderPrompt(); p != "" {
		sections = append(sections, p)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return RenderApplicationContainer(content, footer, m.GatewayURL, m.Width, m.Height)
}

func (m DashboardModel) renderConnection(vm dashboard.ViewModel, width int) string {
	var b strings.Builder

	b.WriteString(RenderBadge(vm.State))
	if m.Busy > 0 {
		b.WriteString(" " + m.Spinner.View())
	}
	auto := "off"
	if vm.AutoRefresh {
		auto = "on"
	}
	b.WriteString(MutedStyle.Render("  auto-refresh: " + auto))
	if !vm.LastRefresh.IsZero() {
		b.WriteString(MutedStyle.Render("  updated " + vm.LastRefresh.Format("15:04:05")))
	}
	b.WriteString("\n")

	for i := range m.Form {
		label := FieldLabelStyle.Render(fieldLabels[i] + ":")
		value := m.Form[i].View()
		if m.Focus != focusForm {
			value = m.Form[i].Value()
		}
		b.WriteString("\n" + label + " " + value)
	}

	style := PanelStyle
	if m.Focus == focusForm {
		style = FocusedPanelStyle
	}
	return style.Width(width - 8).Render(b.String())
}

func (m DashboardModel) renderTabs(vm dashboard.ViewModel) string {
	tabs := make([]string, 0, len(names.Categories))
	for i, c := range names.Categories {
		label := c.Title()
		if n := len(vm.Table(c).Rows); n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if m.Dash.Editing(c) {
			label += " ✎"
		}
		if i == m.Category {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m DashboardModel) renderTable(vm dashboard.ViewModel, width int) string {
	tv := vm.Table(names.Categories[m.Category])

	style := PanelStyle
	if m.Focus == focusTables {
		style = FocusedPanelStyle
	}
	style = style.Width(width - 8)

	if len(tv.Rows) == 0 {
		return style.Render(SubtitleStyle.Render(tv.Placeholder))
	}

	// Keep the cursor visible on short terminals
	visible := len(tv.Rows)
	if m.Height > 0 {
		visible = max(4, m.Height-22)
	}
	cursor := m.Cursors[m.Category]
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(len(tv.Rows), start+visible)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(tv.Rows[i], i == cursor && m.Focus == focusTables))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m DashboardModel) renderRow(r dashboard.Row, selected bool) string {
	value := r.Value
	switch {
	case names.Categories[m.Category] == names.Registers:
	case r.On:
		value = OnStyle.Render(value)
	default:
		value = OffStyle.Render(value)
	}

	marker := "  "
	if selected {
		marker = "▸ "
	}
	label := fmt.Sprintf("%-24s", r.Label)
	if r.Editing {
		label = fmt.Sprintf("%-22s ✎", r.Label)
	}

	line := fmt.Sprintf("%s%3d  %s  %s", marker, r.Address, label, value)
	if selected {
		return SelectedStyle.Render(line)
	}
	return line
}

func (m DashboardModel) renderPrompt() string {
	c := names.Categories[m.Category]
	switch m.Mode {
	case modeRename:
		return fmt.Sprintf("\nName for %s %d: %s", c, m.promptAddr, m.Prompt.View())
	case modeRegister:
		return fmt.Sprintf("\nValue for register %d (0-%d): %s", m.promptAddr, gateway.MaxRegisterValue, m.Prompt.View())
	case modeExport:
		return "\nExport names to: " + m.Prompt.View()
	case modeImport:
		return "\nImport names from: " + m.Prompt.View()
	case modeConfirmReset:
		return "\n" + lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
			Render("⚠ Reset all names to defaults? This cannot be undone. (y/N)")
	}
	return ""
}
