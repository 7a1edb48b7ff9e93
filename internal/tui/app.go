package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/modbusdash/internal/dashboard"
	"github.com/muurk/modbusdash/internal/discovery"
	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/logging"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenDashboard Screen = "dashboard"
)

// Options configures the application
type Options struct {
	// GatewayURL opens the dashboard directly. Ignored when StartWithScan is set.
	GatewayURL    string
	StartWithScan bool
	ScanTimeout   time.Duration

	// Dashboard timing; GatewayURL inside is overwritten per gateway
	Dashboard dashboard.Options

	// NewGateway builds the REST client for a base URL
	NewGateway func(baseURL string) dashboard.Gateway

	// TargetFor pre-fills the connect form for a gateway
	TargetFor func(baseURL string) dashboard.ConnectForm

	// OnConnected is called after each successful connect
	OnConnected func(baseURL string, form dashboard.ConnectForm)

	Scan ScanFunc
}

func (o Options) withDefaults() Options {
	if o.ScanTimeout <= 0 {
		o.ScanTimeout = discovery.DefaultScanTimeout
	}
	if o.NewGateway == nil {
		o.NewGateway = func(baseURL string) dashboard.Gateway { return gateway.NewClient(baseURL) }
	}
	if o.TargetFor == nil {
		o.TargetFor = func(string) dashboard.ConnectForm {
			return dashboard.ConnectForm{Host: "localhost", Port: "502", UnitID: "1"}
		}
	}
	if o.Scan == nil {
		o.Scan = discovery.ScanForGateways
	}
	return o
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	// dash is owned by the dashboard screen and closed when it is left
	dash *dashboard.Dashboard

	opts Options
	ctx  context.Context

	Width  int
	Height int
}

// NewAppModel creates the application at the discovery screen or, when a
// gateway URL is known, directly at its dashboard
func NewAppModel(ctx context.Context, opts Options) AppModel {
	opts = opts.withDefaults()
	m := AppModel{opts: opts, ctx: ctx}

	if opts.StartWithScan || opts.GatewayURL == "" {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(ctx, opts.Scan, opts.ScanTimeout)
		return m
	}

	m.CurrentScreen = ScreenDashboard
	m.openDashboard(gateway.NormalizeBaseURL(opts.GatewayURL))
	return m
}

// Init initializes the current screen
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.Init()
	case ScreenDashboard:
		return m.DashboardModel.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.DashboardModel.Width = msg.Width
		m.DashboardModel.Height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m.updateCurrentScreen(msg)
}

func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, cmd := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)

		if url := m.DiscoveryModel.SelectedURL; url != "" {
			m.DiscoveryModel.SelectedURL = ""
			return m.transitionTo(ScreenDashboard, url)
		}
		return m, cmd

	case ScreenDashboard:
		updated, cmd := m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)

		if m.DashboardModel.IsBackRequested() {
			return m.transitionTo(ScreenDiscovery, "")
		}
		return m, cmd
	}

	return m, nil
}

// transitionTo switches screens, closing the dashboard when leaving it
func (m AppModel) transitionTo(screen Screen, url string) (tea.Model, tea.Cmd) {
	m.CurrentScreen = screen

	switch screen {
	case ScreenDiscovery:
		m.closeDashboard()
		m.DiscoveryModel = NewDiscoveryModel(m.ctx, m.opts.Scan, m.opts.ScanTimeout)
		m.DiscoveryModel.Width = m.Width
		m.DiscoveryModel.Height = m.Height
		if m.Width > 0 {
			m.DiscoveryModel.List.SetSize(m.Width-6, max(6, m.Height-10))
		}
		return m, m.DiscoveryModel.Init()

	case ScreenDashboard:
		m.closeDashboard()
		m.openDashboard(url)
		return m, m.DashboardModel.Init()
	}

	return m, nil
}

func (m *AppModel) openDashboard(url string) {
	logging.Info("Opening dashboard", zap.String("gateway", url))

	dopts := m.opts.Dashboard
	dopts.GatewayURL = url
	m.dash = dashboard.New(m.opts.NewGateway(url), dopts)

	m.DashboardModel = NewDashboardModel(m.ctx, m.dash, url, m.opts.TargetFor(url))
	m.DashboardModel.Width = m.Width
	m.DashboardModel.Height = m.Height
	if onConnected := m.opts.OnConnected; onConnected != nil {
		m.DashboardModel.OnConnected = func(form dashboard.ConnectForm) {
			onConnected(url, form)
		}
	}
}

func (m *AppModel) closeDashboard() {
	if m.dash != nil {
		m.dash.Close()
		m.dash = nil
	}
}

// Close releases the open dashboard, if any
func (m AppModel) Close() {
	if m.dash != nil {
		m.dash.Close()
	}
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenDashboard:
		return m.DashboardModel.View()
	default:
		return "Unknown screen"
	}
}

// Run starts the full-screen application and blocks until it exits
func Run(ctx context.Context, opts Options) error {
	model := NewAppModel(ctx, opts)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if app, ok := final.(AppModel); ok {
		app.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
