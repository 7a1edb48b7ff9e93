package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/modbusdash/internal/dashboard"
	"github.com/muurk/modbusdash/internal/discovery"
	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/gateway/gatewaytest"
	"github.com/muurk/modbusdash/internal/names"
)

var testForm = dashboard.ConnectForm{Host: "plc.local", Port: "502", UnitID: "1"}

func newTestModel(t *testing.T) (DashboardModel, *gatewaytest.Server) {
	t.Helper()
	srv := gatewaytest.New(4)
	t.Cleanup(srv.Close)

	d := dashboard.New(gateway.NewClient(srv.URL), dashboard.Options{})
	t.Cleanup(d.Close)

	return NewDashboardModel(context.Background(), d, srv.URL, testForm), srv
}

// connected returns a model already connected and focused on the given tab
func connected(t *testing.T, c names.Category) (DashboardModel, *gatewaytest.Server) {
	t.Helper()
	m, srv := newTestModel(t)
	require.NoError(t, m.Dash.Connect(context.Background(), testForm))
	m = drain(m)
	m.Focus = focusTables
	for i, cat := range names.Categories {
		if cat == c {
			m.Category = i
		}
	}
	return m, srv
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var keyEnter = tea.KeyMsg{Type: tea.KeyEnter}

func press(t *testing.T, m DashboardModel, k tea.KeyMsg) (DashboardModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(k)
	return updated.(DashboardModel), cmd
}

// finish runs an operation command and feeds its result back
func finish(t *testing.T, m DashboardModel, cmd tea.Cmd) (DashboardModel, opDoneMsg) {
	t.Helper()
	require.NotNil(t, cmd)
	done, ok := cmd().(opDoneMsg)
	require.True(t, ok)
	updated, _ := m.Update(done)
	return updated.(DashboardModel), done
}

// drain delivers every queued dashboard event
func drain(m DashboardModel) DashboardModel {
	ch := m.Dash.Events()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return m
			}
			updated, _ := m.Update(dashboardEventMsg{src: ch, event: ev})
			m = updated.(DashboardModel)
		default:
			return m
		}
	}
}

func TestDashboardModel_ConnectFromForm(t *testing.T) {
	m, srv := newTestModel(t)

	var remembered dashboard.ConnectForm
	m.OnConnected = func(form dashboard.ConnectForm) { remembered = form }

	m, cmd := press(t, m, keyEnter)
	assert.Equal(t, 1, m.Busy)

	m, done := finish(t, m, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, 0, m.Busy)
	assert.True(t, srv.Connected())
	assert.Equal(t, "plc.local", srv.LastConnect().Host)
	assert.Equal(t, testForm, remembered)

	m = drain(m)
	assert.Equal(t, focusTables, m.Focus)
	assert.Equal(t, dashboard.Connected, m.Dash.State())
}

func TestDashboardModel_ConnectMissingFields(t *testing.T) {
	m, srv := newTestModel(t)
	m.Form[fieldHost].SetValue("")

	called := false
	m.OnConnected = func(dashboard.ConnectForm) { called = true }

	m, cmd := press(t, m, keyEnter)
	_, done := finish(t, m, cmd)

	assert.Error(t, done.err)
	assert.False(t, called)
	assert.False(t, srv.Connected())
	require.NotNil(t, m.Dash.Notification())
	assert.Equal(t, dashboard.SeverityWarning, m.Dash.Notification().Severity)
}

func TestDashboardModel_ToggleCoil(t *testing.T) {
	m, srv := connected(t, names.Coils)
	m.Cursors[m.Category] = 2

	m, cmd := press(t, m, keyEnter)
	_, done := finish(t, m, cmd)

	require.NoError(t, done.err)
	assert.True(t, srv.Coil(2))
}

func TestDashboardModel_InputsAreReadOnly(t *testing.T) {
	m, _ := connected(t, names.Inputs)

	m, cmd := press(t, m, keyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, modeNormal, m.Mode)
}

func TestDashboardModel_WriteRegister(t *testing.T) {
	m, srv := connected(t, names.Registers)
	srv.SetRegister(1, 7)
	_, err := m.Dash.RefreshAll(context.Background())
	require.NoError(t, err)
	m.Cursors[m.Category] = 1

	m, _ = press(t, m, keyEnter)
	require.Equal(t, modeRegister, m.Mode)
	assert.Equal(t, "7", m.Prompt.Value())

	m.Prompt.SetValue("1234")
	m, cmd := press(t, m, keyEnter)
	assert.Equal(t, modeNormal, m.Mode)

	_, done := finish(t, m, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, 1234, srv.Register(1))
}

func TestDashboardModel_RegisterValueNotANumber(t *testing.T) {
	m, srv := connected(t, names.Registers)

	m, _ = press(t, m, keyEnter)
	m.Prompt.SetValue("abc")
	m, cmd := press(t, m, keyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, 0, srv.Count(gateway.PathWriteRegister))
	n := m.Dash.Notification()
	require.NotNil(t, n)
	assert.Equal(t, "Register value must be a number", n.Message)
}

func TestDashboardModel_RenameRow(t *testing.T) {
	m, srv := connected(t, names.Coils)

	m, _ = press(t, m, keyRunes("n"))
	require.Equal(t, modeRename, m.Mode)
	assert.Equal(t, "Coil_0", m.Prompt.Value())

	m.Prompt.SetValue("Pump")
	m, cmd := press(t, m, keyEnter)
	m, done := finish(t, m, cmd)

	require.NoError(t, done.err)
	assert.Equal(t, "Pump", srv.Names()[names.Coils][0])
	assert.Equal(t, "Pump", m.Dash.Label(names.Coils, 0))
}

func TestDashboardModel_PromptCancelClears(t *testing.T) {
	m, _ := connected(t, names.Coils)

	m, _ = press(t, m, keyRunes("n"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Equal(t, modeNormal, m.Mode)
	assert.Empty(t, m.Prompt.Value())
}

func TestDashboardModel_ImportMissingFile(t *testing.T) {
	m, srv := connected(t, names.Inputs)

	m, _ = press(t, m, keyRunes("i"))
	require.Equal(t, modeImport, m.Mode)

	m.Prompt.SetValue(filepath.Join(t.TempDir(), "missing.json"))
	m, cmd := press(t, m, keyEnter)
	assert.Empty(t, m.Prompt.Value(), "prompt is cleared even when the import fails")

	m, done := finish(t, m, cmd)
	assert.Error(t, done.err)
	assert.Equal(t, 0, srv.Count(gateway.PathImportNames))

	n := m.Dash.Notification()
	require.NotNil(t, n)
	assert.Equal(t, dashboard.SeverityError, n.Severity)
	assert.Contains(t, n.Message, "Failed to import names")
}

func TestDashboardModel_ImportEmptyPath(t *testing.T) {
	m, _ := connected(t, names.Inputs)

	m, _ = press(t, m, keyRunes("i"))
	m, cmd := press(t, m, keyEnter)

	assert.Nil(t, cmd)
	require.NotNil(t, m.Dash.Notification())
	assert.Equal(t, "No file selected", m.Dash.Notification().Message)
}

func TestDashboardModel_ExportThenImport(t *testing.T) {
	m, srv := connected(t, names.Inputs)
	require.NoError(t, m.Dash.SetName(context.Background(), names.Inputs, 3, "Door"))
	path := filepath.Join(t.TempDir(), "names.json")

	m, _ = press(t, m, keyRunes("x"))
	require.Equal(t, modeExport, m.Mode)
	assert.Equal(t, gateway.DefaultExportName, m.Prompt.Value())

	m.Prompt.SetValue(path)
	m, cmd := press(t, m, keyEnter)
	m, done := finish(t, m, cmd)
	require.NoError(t, done.err)

	f, err := os.Open(path)
	require.NoError(t, err)
	exported, err := names.Decode(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "Door", exported[names.Inputs][3])

	require.NoError(t, m.Dash.ResetNames(context.Background()))

	m, _ = press(t, m, keyRunes("i"))
	m.Prompt.SetValue(path)
	m, cmd = press(t, m, keyEnter)
	_, done = finish(t, m, cmd)

	require.NoError(t, done.err)
	assert.Equal(t, "Door", srv.Names()[names.Inputs][3])
}

func TestDashboardModel_ResetNeedsConfirmation(t *testing.T) {
	m, srv := connected(t, names.Inputs)

	m, _ = press(t, m, keyRunes("R"))
	require.Equal(t, modeConfirmReset, m.Mode)
	m, cmd := press(t, m, keyRunes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeNormal, m.Mode)
	assert.Equal(t, 0, srv.Count(gateway.PathResetNames))

	m, _ = press(t, m, keyRunes("R"))
	m, cmd = press(t, m, keyRunes("y"))
	_, done := finish(t, m, cmd)

	require.NoError(t, done.err)
	assert.Equal(t, 1, srv.Count(gateway.PathResetNames))
}

func TestDashboardModel_TabsAndCursorWrap(t *testing.T) {
	m, _ := connected(t, names.Inputs)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.Category)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 2, m.Category)

	m, _ = press(t, m, keyRunes("k"))
	assert.Equal(t, 3, m.Cursors[2], "moving up from the first row wraps to the last")
}

func TestDashboardModel_DisconnectReturnsToForm(t *testing.T) {
	m, srv := connected(t, names.Inputs)

	m, cmd := press(t, m, keyRunes("d"))
	m, done := finish(t, m, cmd)
	require.NoError(t, done.err)
	m = drain(m)

	assert.False(t, srv.Connected())
	assert.Equal(t, focusForm, m.Focus)
	assert.Contains(t, m.View(), "Connect to view inputs")
}

func TestDashboardModel_StaleEventsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	other := make(chan dashboard.Event)

	updated, cmd := m.Update(dashboardEventMsg{src: other, event: dashboard.Event{Kind: dashboard.EventConnectionChanged}})

	assert.Nil(t, cmd)
	assert.Equal(t, focusForm, updated.(DashboardModel).Focus)
}

func TestDashboardModel_ViewPlaceholder(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()

	assert.Contains(t, view, AppName)
	assert.Contains(t, view, "Connect to view inputs")
	assert.Contains(t, view, "plc.local")
}

func TestDashboardModel_BackToGateways(t *testing.T) {
	m, _ := connected(t, names.Inputs)

	m, _ = press(t, m, keyRunes("g"))

	assert.True(t, m.IsBackRequested())
}

func fakeScan(gws ...*discovery.Gateway) ScanFunc {
	return func(context.Context, time.Duration) ([]*discovery.Gateway, error) {
		return gws, nil
	}
}

var testGateway = &discovery.Gateway{
	Instance: "Modbus Gateway",
	Hostname: "plc-bridge.local.",
	IP:       "192.168.1.20",
	Port:     5000,
}

func TestDiscoveryModel_ScanResults(t *testing.T) {
	m := NewDiscoveryModel(context.Background(), fakeScan(testGateway), time.Second)

	updated, _ := m.Update(scanStartMsg{})
	m = updated.(DiscoveryModel)
	assert.True(t, m.Scanning)
	assert.Contains(t, m.View(), "SEARCHING FOR GATEWAYS")

	msg := m.scanCmd()()
	updated, _ = m.Update(msg)
	m = updated.(DiscoveryModel)
	assert.False(t, m.Scanning)
	require.Len(t, m.List.Items(), 1)

	updated, _ = m.Update(keyEnter)
	m = updated.(DiscoveryModel)
	assert.Equal(t, "http://192.168.1.20:5000", m.SelectedURL)
}

func TestDiscoveryModel_NoGateways(t *testing.T) {
	m := NewDiscoveryModel(context.Background(), fakeScan(), time.Second)

	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(DiscoveryModel)

	assert.Contains(t, m.View(), "No gateways found")
}

func TestDiscoveryModel_ManualURL(t *testing.T) {
	m := NewDiscoveryModel(context.Background(), fakeScan(), time.Second)

	updated, _ := m.Update(keyRunes("m"))
	m = updated.(DiscoveryModel)
	require.True(t, m.ManualMode)

	updated, _ = m.Update(keyRunes("gw.local:5000/"))
	m = updated.(DiscoveryModel)
	updated, _ = m.Update(keyEnter)
	m = updated.(DiscoveryModel)

	assert.False(t, m.ManualMode)
	assert.Equal(t, "http://gw.local:5000", m.SelectedURL)
}

func TestAppModel_DiscoveryToDashboardAndBack(t *testing.T) {
	srv := gatewaytest.New(4)
	t.Cleanup(srv.Close)

	gw := &discovery.Gateway{Instance: "test", IP: "127.0.0.1", Port: 5000}
	var targetFor string
	app := NewAppModel(context.Background(), Options{
		StartWithScan: true,
		Scan:          fakeScan(gw),
		NewGateway:    func(string) dashboard.Gateway { return gateway.NewClient(srv.URL) },
		TargetFor: func(url string) dashboard.ConnectForm {
			targetFor = url
			return testForm
		},
	})
	require.Equal(t, ScreenDiscovery, app.CurrentScreen)

	updated, _ := app.Update(scanCompleteMsg{gateways: []*discovery.Gateway{gw}})
	app = updated.(AppModel)
	updated, cmd := app.Update(keyEnter)
	app = updated.(AppModel)
	t.Cleanup(app.Close)

	assert.NotNil(t, cmd)
	assert.Equal(t, ScreenDashboard, app.CurrentScreen)
	assert.Equal(t, "http://127.0.0.1:5000", targetFor)
	assert.Equal(t, "plc.local", app.DashboardModel.Form[fieldHost].Value())

	first := app.DashboardModel.Dash
	app.DashboardModel.Focus = focusTables
	updated, _ = app.Update(keyRunes("g"))
	app = updated.(AppModel)

	assert.Equal(t, ScreenDiscovery, app.CurrentScreen)
	_, open := <-first.Events()
	assert.False(t, open, "leaving the dashboard closes it")
}

func TestAppModel_StartsOnDashboardWithURL(t *testing.T) {
	app := NewAppModel(context.Background(), Options{GatewayURL: "gw.local:5000"})
	t.Cleanup(app.Close)

	assert.Equal(t, ScreenDashboard, app.CurrentScreen)
	assert.Equal(t, "http://gw.local:5000", app.DashboardModel.GatewayURL)
	assert.Equal(t, "localhost", app.DashboardModel.Form[fieldHost].Value())
}
