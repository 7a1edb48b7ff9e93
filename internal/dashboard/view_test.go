package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/modbusdash/internal/names"
)

func TestView_Disconnected(t *testing.T) {
	d, _, _ := newTestDashboard(t, Options{GatewayURL: "http://gw:5000"})

	vm := d.View()

	assert.Equal(t, Disconnected, vm.State)
	assert.Equal(t, "http://gw:5000", vm.GatewayURL)
	require.Len(t, vm.Tables, 3)
	assert.Equal(t, "Connect to view inputs", vm.Table(names.Inputs).Placeholder)
	assert.Equal(t, "Connect to view coils", vm.Table(names.Coils).Placeholder)
	assert.Equal(t, "Connect to view registers", vm.Table(names.Registers).Placeholder)
}

func TestView_RowsSortedWithLabels(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	ctx := context.Background()
	srv.SetRegister(2, 1200)
	connect(t, d)
	require.NoError(t, d.SetName(ctx, names.Registers, 2, "Setpoint"))

	regs := d.View().Table(names.Registers)

	require.Len(t, regs.Rows, 4)
	assert.Empty(t, regs.Placeholder)
	for i, row := range regs.Rows {
		assert.Equal(t, i, row.Address)
		assert.True(t, row.Writable)
	}
	assert.Equal(t, "Setpoint", regs.Rows[2].Label)
	assert.Equal(t, "1200", regs.Rows[2].Value)
	assert.Equal(t, 1200, regs.Rows[2].Number)
	assert.Equal(t, "Register_3", regs.Rows[3].Label)
}

func TestView_BitTables(t *testing.T) {
	d, srv, _ := newTestDashboard(t, Options{})
	srv.SetInput(1, true)
	connect(t, d)

	vm := d.View()
	inputs := vm.Table(names.Inputs)
	coils := vm.Table(names.Coils)

	assert.Equal(t, "ON", inputs.Rows[1].Value)
	assert.True(t, inputs.Rows[1].On)
	assert.False(t, inputs.Rows[1].Writable)
	assert.Equal(t, "Input_1", inputs.Rows[1].Label)
	assert.Equal(t, "OFF", coils.Rows[0].Value)
	assert.True(t, coils.Rows[0].Writable)
	assert.False(t, vm.LastRefresh.IsZero())
}

func TestSeverity_IconAndColor(t *testing.T) {
	tests := []struct {
		severity Severity
		name     string
		icon     string
		color    string
	}{
		{SeverityInfo, "info", "ℹ", "#7D56F4"},
		{SeveritySuccess, "success", "✓", "#43BF6D"},
		{SeverityWarning, "warning", "⚠", "#FFA500"},
		{SeverityError, "error", "✗", "#FF0000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.severity.String())
		assert.Equal(t, tt.icon, tt.severity.Icon())
		assert.Equal(t, tt.color, tt.severity.Color())
	}

	n := Notification{Severity: SeverityWarning, Message: "careful"}
	assert.Equal(t, "⚠ careful", n.String())
}

func TestParseConnectForm_Trims(t *testing.T) {
	req, err := ParseConnectForm(ConnectForm{Host: " plc ", Port: " 1502", UnitID: "0 "})

	require.NoError(t, err)
	assert.Equal(t, "plc", req.Host)
	assert.Equal(t, 1502, req.Port)
	assert.Equal(t, 0, req.UnitID)
}
