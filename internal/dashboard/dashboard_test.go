package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/gateway/gatewaytest"
	"github.com/muurk/modbusdash/internal/names"
)

var readPaths = []string{gateway.PathReadInputs, gateway.PathReadCoils, gateway.PathReadRegisters}

func newTestDashboard(t *testing.T, opts Options) (*Dashboard, *gatewaytest.Server, *fakeClock) {
	t.Helper()
	srv := gatewaytest.New(4)
	t.Cleanup(srv.Close)

	clk := newFakeClock()
	opts.Clock = clk
	d := New(gateway.NewClient(srv.URL), opts)
	t.Cleanup(d.Close)
	return d, srv, clk
}

func connect(t *testing.T, d *Dashboard) {
	t.Helper()
	require.NoError(t, d.Connect(context.Background(), ConnectForm{Host: "plc.local", Port: "502", UnitID: "1"}))
}

func readCount(srv *gatewaytest.Server) int {
	n := 0
	for _, p := range readPaths {
		n += srv.Count(p)
	}
	return n
}

func TestRefreshAll_DisconnectedIssuesNoRequests(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})

	refreshed, err := d.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Zero(t, readCount(srv))
}

func TestConnect_Success(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})

	connect(t, d)

	assert.Equal(t, Connected, d.State())
	assert.Equal(t, gateway.ConnectRequest{Host: "plc.local", Port: 502, UnitID: 1}, srv.LastConnect())
	for _, p := range readPaths {
		assert.Equal(t, 1, srv.Count(p), p)
	}

	n := d.Notification()
	require.NotNil(t, n)
	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.Equal(t, "Connected successfully!", n.Message)

	snap := d.Snapshot()
	assert.Len(t, snap.Inputs, 4)
	assert.Len(t, snap.Coils, 4)
	assert.Len(t, snap.Registers, 4)
}

func TestConnect_EmptyFieldWarnsWithoutRequest(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})

	err := d.Connect(context.Background(), ConnectForm{Host: "plc.local", Port: "", UnitID: "1"})

	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Zero(t, srv.Count(gateway.PathConnect))
	assert.Equal(t, Disconnected, d.State())

	n := d.Notification()
	require.NotNil(t, n)
	assert.Equal(t, SeverityWarning, n.Severity)
	assert.Equal(t, "Please fill in all connection fields", n.Message)
}

func TestConnect_InvalidNumbers(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()

	err := d.Connect(ctx, ConnectForm{Host: "plc", Port: "abc", UnitID: "1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Port must be a number between 1 and 65535", d.Notification().Message)

	err = d.Connect(ctx, ConnectForm{Host: "plc", Port: "502", UnitID: "300"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Unit ID must be a number between 0 and 255", d.Notification().Message)

	assert.Zero(t, srv.Count(gateway.PathConnect))
}

func TestConnect_GatewayRejects(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	srv.Fail(gateway.PathConnect, "Failed to connect")

	err := d.Connect(context.Background(), ConnectForm{Host: "plc", Port: "502", UnitID: "1"})

	require.Error(t, err)
	assert.Equal(t, Disconnected, d.State())
	n := d.Notification()
	require.NotNil(t, n)
	assert.Equal(t, SeverityError, n.Severity)
	assert.Equal(t, "Failed to connect", n.Message)
	assert.Zero(t, readCount(srv))
}

func TestConnect_TransportFailure(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	srv.Break(gateway.PathConnect)

	err := d.Connect(context.Background(), ConnectForm{Host: "plc", Port: "502", UnitID: "1"})

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(d.Notification().Message, "Connection failed: "), d.Notification().Message)
	assert.Equal(t, 1, srv.Count(gateway.PathConnect))
}

func TestWrite_QuietWindowSuppressesRefresh(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	ctx := context.Background()
	connect(t, d)

	require.NoError(t, d.WriteCoil(ctx, 1, true))
	clk.Advance(1999 * time.Millisecond)
	srv.ResetCounts()

	refreshed, err := d.RefreshAll(ctx)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Zero(t, readCount(srv))

	clk.Advance(time.Millisecond)
	refreshed, err = d.RefreshAll(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 3, readCount(srv))
}

func TestWrite_TimestampRecordedBeforeRequest(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	connect(t, d)
	srv.Fail(gateway.PathWriteCoil, "Failed to write coil")

	before := clk.Now()
	_ = d.WriteCoil(context.Background(), 0, true)

	assert.Equal(t, before, d.LastManualWrite())
}

func TestWriteCoil_ReconcilesOnceAfterDelay(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	ctx := context.Background()
	connect(t, d)
	srv.ResetCounts()

	require.NoError(t, d.WriteCoil(ctx, 3, true))
	assert.Equal(t, "Coil 3 set to ON", d.Notification().Message)
	assert.True(t, srv.Coil(3))

	clk.Advance(499 * time.Millisecond)
	assert.Zero(t, srv.Count(gateway.PathReadCoils))

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, srv.Count(gateway.PathReadCoils))

	clk.Advance(30 * time.Second)
	assert.Equal(t, 1, srv.Count(gateway.PathReadCoils))
	assert.Zero(t, srv.Count(gateway.PathReadInputs))
	assert.Zero(t, srv.Count(gateway.PathReadRegisters))

	assert.True(t, d.Snapshot().Coils[3])
}

func TestWriteRegister_ReconcilesOwnCategory(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	connect(t, d)
	srv.ResetCounts()

	require.NoError(t, d.WriteRegister(context.Background(), 2, 1200))
	assert.Equal(t, "Register 2 set to 1200", d.Notification().Message)

	clk.Advance(DefaultReconcileDelay)
	assert.Equal(t, 1, srv.Count(gateway.PathReadRegisters))
	assert.Zero(t, srv.Count(gateway.PathReadCoils))
	assert.Equal(t, 1200, d.Snapshot().Registers[2])
}

func TestWriteCoil_FailureRefreshesImmediately(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	connect(t, d)
	srv.ResetCounts()
	srv.Fail(gateway.PathWriteCoil, "Failed to write coil")

	err := d.WriteCoil(context.Background(), 1, true)

	require.Error(t, err)
	assert.Equal(t, SeverityError, d.Notification().Severity)
	assert.Equal(t, "Failed to write coil", d.Notification().Message)
	assert.Equal(t, 1, srv.Count(gateway.PathReadCoils))

	clk.Advance(time.Second)
	assert.Equal(t, 1, srv.Count(gateway.PathReadCoils))
}

func TestWriteRegister_TransportFailure(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	connect(t, d)
	srv.ResetCounts()
	srv.Break(gateway.PathWriteRegister)

	err := d.WriteRegister(context.Background(), 1, 10)

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(d.Notification().Message, "Write failed: "), d.Notification().Message)
	assert.Equal(t, 1, srv.Count(gateway.PathReadRegisters))
}

func TestWriteRegister_OutOfRange(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	connect(t, d)

	err := d.WriteRegister(context.Background(), 0, 70000)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, srv.Count(gateway.PathWriteRegister))
	assert.True(t, d.LastManualWrite().IsZero())
	assert.Equal(t, SeverityWarning, d.Notification().Severity)
}

func TestWrite_WhileDisconnected(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})

	err := d.WriteCoil(context.Background(), 0, true)

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, srv.Count(gateway.PathWriteCoil))
}

func TestRefreshAll_PartialFailureKeepsPriorSnapshot(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	connect(t, d)

	srv.SetInput(0, true)
	srv.SetRegister(1, 7)
	srv.Fail(gateway.PathReadInputs, "Modbus exception")

	refreshed, err := d.RefreshAll(context.Background())

	assert.True(t, refreshed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Modbus exception")

	snap := d.Snapshot()
	assert.False(t, snap.Inputs[0], "failed category must keep its previous snapshot")
	assert.Equal(t, 7, snap.Registers[1])

	// Refresh failures are logged, not shown
	assert.Equal(t, "Connected successfully!", d.Notification().Message)
}

func TestDisconnect_ClearsSnapshotsAndStopsAutoRefresh(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	connect(t, d)
	d.StartAutoRefresh()

	require.NoError(t, d.Disconnect(context.Background()))

	assert.Equal(t, Disconnected, d.State())
	assert.Equal(t, Snapshot{}, d.Snapshot())
	assert.False(t, d.AutoRefresh())
	assert.Equal(t, SeverityInfo, d.Notification().Severity)
	assert.Equal(t, "Disconnected successfully!", d.Notification().Message)

	srv.ResetCounts()
	clk.Advance(time.Minute)
	assert.Zero(t, readCount(srv))

	vm := d.View()
	assert.Equal(t, "Connect to view coils", vm.Table(names.Coils).Placeholder)
	assert.Empty(t, vm.Table(names.Coils).Rows)
}

func TestDisconnect_Failure(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	connect(t, d)
	srv.Break(gateway.PathDisconnect)

	err := d.Disconnect(context.Background())

	require.Error(t, err)
	assert.Equal(t, Connected, d.State())
	assert.True(t, strings.HasPrefix(d.Notification().Message, "Disconnection failed: "))
}

func TestRefresh_ResultAfterDisconnectIsDropped(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	connect(t, d)
	srv.ResetCounts()

	release := srv.Hold(gateway.PathReadCoils)
	defer release()

	done := make(chan struct{})
	go func() {
		_, _ = d.RefreshAll(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return srv.Count(gateway.PathReadCoils) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, d.Disconnect(ctx))

	// Keep the gateway answering so the held read succeeds
	srv.SetConnected(true)
	release()
	<-done

	assert.Nil(t, d.Snapshot().Coils)
	assert.Equal(t, Disconnected, d.State())
}

func TestAutoRefresh_PeriodicUntilStopped(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	connect(t, d)
	d.StartAutoRefresh()
	srv.ResetCounts()

	clk.Advance(DefaultRefreshInterval)
	assert.Equal(t, 3, readCount(srv))

	clk.Advance(DefaultRefreshInterval)
	assert.Equal(t, 6, readCount(srv))

	d.StopAutoRefresh()
	clk.Advance(3 * DefaultRefreshInterval)
	assert.Equal(t, 6, readCount(srv))
}

func TestAutoRefresh_StartedOnConnect(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{AutoRefresh: true, RefreshInterval: time.Second})
	connect(t, d)
	require.True(t, d.AutoRefresh())
	srv.ResetCounts()

	clk.Advance(time.Second)
	assert.Equal(t, 3, readCount(srv))
}

func TestAutoRefresh_ArmedOnlyWhenConnected(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	d.StartAutoRefresh()

	clk.Advance(time.Minute)
	assert.Zero(t, readCount(srv))

	connect(t, d)
	srv.ResetCounts()
	clk.Advance(DefaultRefreshInterval)
	assert.Equal(t, 3, readCount(srv))
}

func TestCheckStatus_SyncsState(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	connect(t, d)

	srv.SetConnected(false)
	connected, err := d.CheckStatus(ctx)

	require.NoError(t, err)
	assert.False(t, connected)
	assert.Equal(t, Disconnected, d.State())
	assert.Nil(t, d.Snapshot().Coils)

	srv.SetConnected(true)
	_, err = d.CheckStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, Connected, d.State())
}

func TestCheckStatus_AdoptedSessionStartsAutoRefresh(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		userEnable bool
	}{
		{"configured", Options{AutoRefresh: true, RefreshInterval: time.Second}, false},
		{"enabled before adoption", Options{RefreshInterval: time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, srv, clk := newTestDashboard(t, tt.opts)
			if tt.userEnable {
				d.StartAutoRefresh()
			}
			srv.SetConnected(true)

			_, err := d.CheckStatus(context.Background())

			require.NoError(t, err)
			assert.Equal(t, Connected, d.State())
			assert.True(t, d.View().AutoRefresh)

			clk.Advance(time.Second)
			assert.Equal(t, 3, readCount(srv))
		})
	}
}

func TestCheckStatus_AdoptedSessionWithoutAutoRefreshStaysIdle(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{RefreshInterval: time.Second})
	srv.SetConnected(true)

	_, err := d.CheckStatus(context.Background())
	require.NoError(t, err)

	clk.Advance(10 * time.Second)
	assert.False(t, d.AutoRefresh())
	assert.Equal(t, 0, readCount(srv))
}

func TestCheckStatus_FailureLeavesState(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	connect(t, d)
	srv.Break(gateway.PathStatus)

	_, err := d.CheckStatus(context.Background())

	require.Error(t, err)
	assert.Equal(t, Connected, d.State())
}

func TestSetName_Success(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.LoadNames(ctx))

	require.NoError(t, d.SetName(ctx, names.Coils, 3, "Pump"))

	assert.Equal(t, "Pump", d.Label(names.Coils, 3))
	assert.Equal(t, "Pump", srv.Names()[names.Coils][3])
	assert.Equal(t, "Name for coils 3 updated", d.Notification().Message)
}

func TestSetName_FailureLeavesTableUnchanged(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.LoadNames(ctx))
	before := d.Names()

	srv.Fail(gateway.PathSetName, "Failed to save name")
	err := d.SetName(ctx, names.Coils, 3, "Pump")

	require.Error(t, err)
	if diff := cmp.Diff(before, d.Names()); diff != "" {
		t.Errorf("name table changed after failed rename (-before +after):\n%s", diff)
	}
	assert.Equal(t, SeverityError, d.Notification().Severity)
}

func TestLabel_FallbackForMissingAddress(t *testing.T) {
	d, _, _ := newTestDashboard(t, Options{})

	assert.Equal(t, "Coil_3", d.Label(names.Coils, 3))
}

func TestLoadNames_FailureIsSilent(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	srv.Fail(gateway.PathGetNames, "boom")

	require.Error(t, d.LoadNames(context.Background()))
	assert.Nil(t, d.Notification())
	assert.Len(t, d.Names(), 3)
}

func TestResetNames_ReplacesTable(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.LoadNames(ctx))
	require.NoError(t, d.SetName(ctx, names.Inputs, 0, "Door"))
	drain(d)

	require.NoError(t, d.ResetNames(ctx))

	assert.Equal(t, "Input_0", d.Label(names.Inputs, 0))
	if diff := cmp.Diff(srv.Names(), d.Names()); diff != "" {
		t.Errorf("local table differs from gateway (-gateway +local):\n%s", diff)
	}
	assert.Contains(t, drain(d), Event{Kind: EventNamesChanged})
	assert.Equal(t, "Names reset to defaults", d.Notification().Message)
}

func TestSaveNames(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()

	require.NoError(t, d.SaveNames(ctx))
	assert.Equal(t, SeveritySuccess, d.Notification().Severity)
	assert.Equal(t, "Names saved successfully", d.Notification().Message)

	srv.Fail(gateway.PathSaveNames, "Failed to save names")
	require.Error(t, d.SaveNames(ctx))
	assert.Equal(t, SeverityError, d.Notification().Severity)
}

func TestReloadNames(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	table := names.Defaults(4)
	table.Set(names.Registers, 0, "Speed")
	srv.SetNames(table)
	_, err := gateway.NewClient(srv.URL).SaveNames(context.Background())
	require.NoError(t, err)

	require.NoError(t, d.ReloadNames(context.Background()))
	assert.Equal(t, "Speed", d.Label(names.Registers, 0))
}

func TestExportNames(t *testing.T) {
	d, _, _ := newTestDashboard(t, Options{})

	var buf bytes.Buffer
	filename, err := d.ExportNames(context.Background(), &buf)

	require.NoError(t, err)
	assert.Equal(t, "modbus_names.json", filename)
	assert.Contains(t, buf.String(), "Coil_0")
	assert.Equal(t, "Names exported successfully", d.Notification().Message)
}

func TestImportNames(t *testing.T) {
	d, _, _ := newTestDashboard(t, Options{})
	ctx := context.Background()

	upload := `{"inputs": {"0": "Door"}, "coils": {"1": "Fan"}, "registers": {}}`
	require.NoError(t, d.ImportNames(ctx, "names.json", strings.NewReader(upload)))
	assert.Equal(t, "Door", d.Label(names.Inputs, 0))
	assert.Equal(t, "Fan", d.Label(names.Coils, 1))
	assert.Equal(t, "Names imported successfully", d.Notification().Message)

	err := d.ImportNames(ctx, "names.txt", strings.NewReader(upload))
	require.Error(t, err)
	assert.Equal(t, "Invalid file format. Please upload a JSON file.", d.Notification().Message)
	assert.Equal(t, "Door", d.Label(names.Inputs, 0))
}

func TestImportNames_InvalidFileNotUploaded(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	before := d.Names()

	for _, upload := range []string{`{"inputs": {}, "coils": {}}`, `not json`} {
		err := d.ImportNames(ctx, "names.json", strings.NewReader(upload))
		require.Error(t, err, upload)
		assert.Equal(t, SeverityError, d.Notification().Severity)
	}

	assert.Equal(t, 0, srv.Count(gateway.PathImportNames))
	assert.Empty(t, cmp.Diff(before, d.Names()))
}

func TestNotification_AutoDismiss(t *testing.T) {
	d, _, clk := newTestDashboard(t, Options{})
	d.notify(SeverityInfo, "hello")

	clk.Advance(DefaultNotificationTimeout - time.Millisecond)
	require.NotNil(t, d.Notification())

	clk.Advance(time.Millisecond)
	assert.Nil(t, d.Notification())
}

func TestNotification_ReplacedByNewer(t *testing.T) {
	d, _, clk := newTestDashboard(t, Options{})
	d.notify(SeverityInfo, "first")
	clk.Advance(3 * time.Second)
	d.notify(SeverityError, "second")

	clk.Advance(3 * time.Second)
	n := d.Notification()
	require.NotNil(t, n, "older timer must not dismiss the newer notification")
	assert.Equal(t, "second", n.Message)

	clk.Advance(2 * time.Second)
	assert.Nil(t, d.Notification())
}

func TestToggleEditing(t *testing.T) {
	d, _, _ := newTestDashboard(t, Options{})

	assert.True(t, d.ToggleEditing(names.Registers))
	assert.True(t, d.Editing(names.Registers))
	assert.False(t, d.Editing(names.Coils))
	assert.True(t, d.View().Table(names.Registers).Editing)

	assert.False(t, d.ToggleEditing(names.Registers))
}

func TestEvents_NeverBlock(t *testing.T) {
	d, _, _ := newTestDashboard(t, Options{EventBuffer: 1})

	for i := 0; i < 10; i++ {
		d.ToggleEditing(names.Coils)
	}

	assert.Len(t, drain(d), 1)
}

func TestClose_StopsTimers(t *testing.T) {
	d, srv, clk := newTestDashboard(t, Options{})
	connect(t, d)
	d.StartAutoRefresh()
	require.NoError(t, d.WriteCoil(context.Background(), 0, true))
	srv.ResetCounts()

	d.Close()
	clk.Advance(time.Minute)

	assert.Zero(t, readCount(srv))
	_, open := <-d.Events()
	for open {
		_, open = <-d.Events()
	}
}

func drain(d *Dashboard) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-d.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
