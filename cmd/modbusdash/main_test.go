package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/modbusdash/internal/config"
	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/gateway/gatewaytest"
	"github.com/muurk/modbusdash/internal/names"
)

type harness struct {
	srv        *gatewaytest.Server
	configPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	origEnv, origInteractive := getenv, isInteractive
	getenv = func(string) string { return "" }
	isInteractive = func() bool { return false }
	t.Cleanup(func() {
		getenv = origEnv
		isInteractive = origInteractive
	})

	srv := gatewaytest.New(4)
	t.Cleanup(srv.Close)

	return &harness{
		srv:        srv,
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
	}
}

// run executes one CLI invocation against the fake gateway
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := newRootCmd(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs(append([]string{"--gateway", h.srv.URL, "--config", h.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatus_JSON(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "status", "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, false, got["connected"])
	assert.Equal(t, h.srv.URL, got["gateway"])
}

func TestConnect_RemembersTarget(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "connect", "--host", "plc.local", "--port", "1502", "--unit-id", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected successfully!")

	assert.True(t, h.srv.Connected())
	assert.Equal(t, gateway.ConnectRequest{Host: "plc.local", Port: 1502, UnitID: 2}, h.srv.LastConnect())

	reg, err := config.LoadFile(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, config.ModbusTarget{Host: "plc.local", Port: 1502, UnitID: 2}, reg.TargetFor(h.srv.URL))
}

func TestConnect_NicknameShownInStatus(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "connect", "--host", "plc", "--nickname", "Boiler room")
	require.NoError(t, err)

	out, err := h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Boiler room")
}

func TestConnect_FallsBackToRememberedTarget(t *testing.T) {
	h := newHarness(t)
	reg := config.NewRegistry()
	reg.Gateways[h.srv.URL] = &config.Gateway{
		LastTarget: &config.ModbusTarget{Host: "10.0.0.9", Port: 502, UnitID: 7},
	}
	require.NoError(t, reg.SaveFile(h.configPath))

	_, err := h.run(t, "connect", "--unit-id", "8")
	require.NoError(t, err)

	assert.Equal(t, gateway.ConnectRequest{Host: "10.0.0.9", Port: 502, UnitID: 8}, h.srv.LastConnect())
}

func TestConnect_InvalidPortSendsNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "connect", "--host", "plc", "--port", "abc")

	assert.Error(t, err)
	assert.Equal(t, 0, h.srv.Count(gateway.PathConnect))
}

func TestConnect_GatewayError(t *testing.T) {
	h := newHarness(t)
	h.srv.Fail(gateway.PathConnect, "Connection refused by device")

	_, err := h.run(t, "connect", "--host", "plc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Connection refused by device")
	assert.True(t, gateway.IsApplicationError(err))
}

func TestWriteThenRead(t *testing.T) {
	h := newHarness(t)
	h.srv.SetConnected(true)
	h.srv.SetRegister(3, 1200)

	_, err := h.run(t, "write", "coil", "1", "on")
	require.NoError(t, err)
	assert.True(t, h.srv.Coil(1))

	_, err = h.run(t, "names", "set", "coils", "1", "Main", "pump")
	require.NoError(t, err)

	out, err := h.run(t, "read", "all", "--format", "json")
	require.NoError(t, err)

	var got map[string][]struct {
		Address int    `json:"address"`
		Label   string `json:"label"`
		Value   any    `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got["coils"], 4)
	assert.Equal(t, "Main pump", got["coils"][1].Label)
	assert.Equal(t, true, got["coils"][1].Value)
	assert.Equal(t, float64(1200), got["registers"][3].Value)
	assert.Equal(t, "Input_0", got["inputs"][0].Label)
}

func TestRead_Table(t *testing.T) {
	h := newHarness(t)
	h.srv.SetConnected(true)

	out, err := h.run(t, "read", "registers")
	require.NoError(t, err)

	assert.Contains(t, out, "Holding Registers")
	assert.Contains(t, out, "Register_3")
	assert.NotContains(t, out, "Coil_0")
}

func TestRead_Disconnected(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "read")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
	assert.Equal(t, 0, h.srv.Count(gateway.PathReadCoils))
}

func TestWriteRegister_Validation(t *testing.T) {
	h := newHarness(t)
	h.srv.SetConnected(true)

	tests := []struct {
		name string
		args []string
	}{
		{"too large", []string{"write", "register", "0", "65536"}},
		{"negative", []string{"write", "register", "0", "-1"}},
		{"not a number", []string{"write", "register", "0", "lots"}},
		{"bad address", []string{"write", "register", "x", "1"}},
		{"bad coil value", []string{"write", "coil", "0", "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			assert.Error(t, err)
		})
	}
	assert.Equal(t, 0, h.srv.Count(gateway.PathWriteRegister))
	assert.Equal(t, 0, h.srv.Count(gateway.PathWriteCoil))
}

func TestNamesList_JSONFilter(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "names", "set", "registers", "2", "Setpoint")
	require.NoError(t, err)

	out, err := h.run(t, "names", "list", "registers", "--format", "json")
	require.NoError(t, err)

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Setpoint", got["registers"]["2"])
	assert.NotContains(t, got, "coils")
}

func TestNamesReset_NeedsYes(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "names", "reset")
	require.Error(t, err)
	assert.Equal(t, 0, h.srv.Count(gateway.PathResetNames))

	_, err = h.run(t, "names", "reset", "--yes")
	require.NoError(t, err)
	assert.Equal(t, 1, h.srv.Count(gateway.PathResetNames))
}

func TestNamesExportImport(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "names.json")

	_, err := h.run(t, "names", "set", "inputs", "0", "Door")
	require.NoError(t, err)
	_, err = h.run(t, "names", "export", path)
	require.NoError(t, err)

	_, err = h.run(t, "names", "reset", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Input_0", h.srv.Names()[names.Inputs][0])

	out, err := h.run(t, "names", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Names imported")
	assert.Equal(t, "Door", h.srv.Names()[names.Inputs][0])
}

func TestNamesImport_MissingFile(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "names", "import", filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
	assert.Equal(t, 0, h.srv.Count(gateway.PathImportNames))
}

func TestNamesImport_InvalidFileNotUploaded(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "names.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"inputs": {"0": "Door"}}`), 0o600))

	_, err := h.run(t, "names", "import", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Equal(t, 0, h.srv.Count(gateway.PathImportNames))
}

func TestShutdown(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "shutdown")
	require.Error(t, err)
	assert.False(t, h.srv.ShutdownRequested())

	_, err = h.run(t, "shutdown", "--yes")
	require.NoError(t, err)
	assert.True(t, h.srv.ShutdownRequested())
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(h.configPath)
	require.NoError(t, err)

	_, err = h.run(t, "config", "init")
	assert.Error(t, err, "existing file needs --force")

	out, err := h.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "gateway_url: http://localhost:5000")
	assert.Contains(t, out, "interval: 5s")
}

func TestEnvOverridesConfig(t *testing.T) {
	h := newHarness(t)
	getenv = func(key string) string {
		if key == config.EnvModbusHost {
			return "env-plc"
		}
		return ""
	}

	_, err := h.run(t, "connect")
	require.NoError(t, err)

	assert.Equal(t, "env-plc", h.srv.LastConnect().Host)
}

func TestUnknownFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "status", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestTUIRequiresTerminal(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestVersion_JSON(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "version", "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got["version"])
}

func TestParseOnOff(t *testing.T) {
	for _, s := range []string{"on", "ON", "true", "1"} {
		v, err := parseOnOff(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"off", "false", "0"} {
		v, err := parseOnOff(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := parseOnOff("toggle")
	assert.Error(t, err)
}
