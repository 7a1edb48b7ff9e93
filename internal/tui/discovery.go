package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/modbusdash/internal/discovery"
	"github.com/muurk/modbusdash/internal/gateway"
)

// ScanFunc finds gateways. discovery.ScanForGateways satisfies it.
type ScanFunc func(ctx context.Context, timeout time.Duration) ([]*discovery.Gateway, error)

type scanStartMsg struct{}

type scanCompleteMsg struct {
	gateways []*discovery.Gateway
	err      error
}

type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// gatewayItem adapts a discovered gateway to bubbles/list
type gatewayItem struct {
	gw *discovery.Gateway
}

func (i gatewayItem) FilterValue() string {
	return i.gw.Instance + " " + i.gw.BaseURL() + " " + i.gw.Hostname
}

func (i gatewayItem) Title() string {
	if i.gw.Instance == "" {
		return i.gw.BaseURL()
	}
	return i.gw.Instance
}

func (i gatewayItem) Description() string {
	desc := i.gw.BaseURL()
	if i.gw.Hostname != "" {
		desc += " • " + strings.TrimSuffix(i.gw.Hostname, ".")
	}
	if v := i.gw.GetMetadata("version"); v != "" {
		desc += " • v" + v
	}
	return desc
}

// DiscoveryModel is the gateway picker: mDNS scan results plus manual entry
type DiscoveryModel struct {
	Scanning    bool
	List        list.Model
	Err         error
	SelectedURL string

	ManualMode bool
	URLInput   textinput.Model

	Width     int
	Height    int
	Spinner   spinner.Model
	ScanStart time.Time
	Timeout   time.Duration
	Help      help.Model
	Keys      discoveryKeyMap
	PromptKey promptKeyMap

	scan ScanFunc
	ctx  context.Context
}

// NewDiscoveryModel creates the gateway picker
func NewDiscoveryModel(ctx context.Context, scan ScanFunc, timeout time.Duration) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	in := textinput.New()
	in.Placeholder = gateway.DefaultBaseURL
	in.CharLimit = 200
	in.Width = 40

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(HighlightColor).
		BorderForeground(HighlightColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		BorderForeground(HighlightColor)

	l := list.New([]list.Item{}, delegate, MinTerminalWidth-4, 12)
	l.Title = "Discovered Gateways"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	return DiscoveryModel{
		List:      l,
		URLInput:  in,
		Spinner:   s,
		Timeout:   timeout,
		Help:      help.New(),
		PromptKey: newPromptKeyMap(),
		Keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use gateway")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter URL")),
			Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		scan: scan,
		ctx:  ctx,
	}
}

// Init starts the first scan
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.scanCmd(),
		m.Spinner.Tick,
	)
}

func (m DiscoveryModel) scanCmd() tea.Cmd {
	scan, ctx, timeout := m.scan, m.ctx, m.Timeout
	return func() tea.Msg {
		gws, err := scan(ctx, timeout)
		return scanCompleteMsg{gateways: gws, err: err}
	}
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-6, max(6, msg.Height-10))
		return m, nil

	case scanStartMsg:
		m.Scanning = true
		m.ScanStart = time.Now()
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.gateways))
		for i, gw := range msg.gateways {
			items[i] = gatewayItem{gw: gw}
		}
		return m, m.List.SetItems(items)

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.List, cmd = m.List.Update(msg)
	}
	return m, cmd
}

func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Let the list own every key while the user is typing a filter
	if m.List.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.List, cmd = m.List.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.URLInput.SetValue("")
		return m, m.URLInput.Focus()

	case m.Scanning:
		return m, nil

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.List.SelectedItem().(gatewayItem); ok {
			m.SelectedURL = item.gw.BaseURL()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		m.Err = nil
		return m, tea.Batch(
			m.List.SetItems(nil),
			func() tea.Msg { return scanStartMsg{} },
			m.scanCmd(),
			m.Spinner.Tick,
		)
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.PromptKey.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil

	case key.Matches(msg, m.PromptKey.Confirm):
		value := strings.TrimSpace(m.URLInput.Value())
		if value == "" {
			return m, nil
		}
		m.SelectedURL = gateway.NormalizeBaseURL(value)
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	width := m.Width
	if width <= 0 {
		width = defaultWidth
	}

	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.PromptKey)
	case m.Scanning:
		content = m.renderScanning(width)
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}

	return RenderApplicationContainer(content, helpText, "", m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning(width int) string {
	elapsed := int(time.Since(m.ScanStart).Seconds())
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR GATEWAYS"),
		SubtitleStyle.Render("Browsing mDNS for modbus gateways..."),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds of %ds", elapsed, int(m.Timeout.Seconds()))),
		"",
	)
	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString(troubleshooting)

	case len(m.List.Items()) == 0:
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
			Render("⚠ No gateways found on your network"))
		b.WriteString("\n\n")
		b.WriteString(troubleshooting)

	default:
		b.WriteString(m.List.View())
	}
	return b.String()
}

const troubleshooting = `  Troubleshooting:
    • Check the gateway is running (default port 5000)
    • mDNS needs multicast on this network segment
    • Press 'm' to enter the gateway URL by hand
`

func (m DiscoveryModel) renderManualEntry() string {
	return "\n" + SubtitleStyle.Render("  Enter the gateway URL") + "\n\n  URL: " + m.URLInput.View() + "\n"
}
