package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/modbusdash/internal/config"
	"github.com/muurk/modbusdash/internal/dashboard"
	"github.com/muurk/modbusdash/internal/discovery"
	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/logging"
	"github.com/muurk/modbusdash/internal/names"
	"github.com/muurk/modbusdash/internal/tui"
	"github.com/muurk/modbusdash/internal/ui"
	"github.com/muurk/modbusdash/internal/version"
)

func (c *cli) newTUICmd() *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the full-screen dashboard",
		Long: `Launch the interactive dashboard.

The dashboard shows the gateway's connection state, a connect form for the
Modbus device, and live tables of discrete inputs, coils and holding
registers. Coils toggle and registers are written in place; every address
can be given a name.

This is the default command.`,
		Example: `  # Dashboard for the configured gateway
  modbusdash

  # Choose a gateway from an mDNS scan
  modbusdash tui --scan`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return fmt.Errorf("the dashboard needs an interactive terminal; use the subcommands for scripting")
			}
			return tui.Run(cmd.Context(), c.tuiOptions(scan))
		},
	}
	cmd.Flags().BoolVar(&scan, "scan", false, "Start at the gateway discovery screen")
	return cmd
}

func (c *cli) tuiOptions(scan bool) tui.Options {
	prefs := c.registry.Preferences
	return tui.Options{
		GatewayURL:    c.gatewayURL,
		StartWithScan: scan,
		ScanTimeout:   prefs.Discovery.Timeout,
		Dashboard: dashboard.Options{
			QuietWindow:         prefs.Refresh.QuietWindow,
			ReconcileDelay:      prefs.Refresh.ReconcileDelay,
			RefreshInterval:     prefs.Refresh.Interval,
			NotificationTimeout: prefs.Notifications.Timeout,
			AutoRefresh:         prefs.Refresh.Auto,
		},
		NewGateway: func(baseURL string) dashboard.Gateway {
			client := gateway.NewClient(baseURL)
			client.SetTimeout(c.timeout)
			client.UserAgent = "modbusdash/" + version.Version
			return client
		},
		TargetFor: func(baseURL string) dashboard.ConnectForm {
			return formFromTarget(c.registry.TargetFor(baseURL))
		},
		OnConnected: func(baseURL string, form dashboard.ConnectForm) {
			req, err := dashboard.ParseConnectForm(form)
			if err != nil {
				return
			}
			c.remember(baseURL, req)
		},
		Scan: discovery.ScanForGateways,
	}
}

func formFromTarget(t config.ModbusTarget) dashboard.ConnectForm {
	return dashboard.ConnectForm{
		Host:   t.Host,
		Port:   strconv.Itoa(t.Port),
		UnitID: strconv.Itoa(t.UnitID),
	}
}

// remember records a successful connect so the next session pre-fills it
func (c *cli) remember(baseURL string, req gateway.ConnectRequest) {
	c.registry.RememberConnection(baseURL, config.ModbusTarget{
		Host:   req.Host,
		Port:   req.Port,
		UnitID: req.UnitID,
	}, time.Now())
	c.saveConfig()
}

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the gateway holds a Modbus connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			connected, err := c.client().Status(cmd.Context())
			if err != nil {
				return c.fail("Status check failed", err)
			}

			if c.jsonOutput() {
				return c.writeJSON(map[string]any{
					"gateway":   c.gatewayURL,
					"connected": connected,
				})
			}

			label := c.gatewayURL
			if gw := c.registry.GetGateway(c.gatewayURL); gw != nil && gw.Nickname != "" {
				label = fmt.Sprintf("%s (%s)", gw.Nickname, c.gatewayURL)
			}

			p := c.printer()
			if connected {
				p.PrintSuccess("Connected", ui.D("Gateway", label))
			} else {
				p.PrintWarning("Disconnected",
					ui.D("Gateway", label),
					ui.D("Next", "modbusdash connect --host <device>"),
				)
			}
			return nil
		},
	}
}

func (c *cli) newConnectCmd() *cobra.Command {
	var host, port, unitID, nickname string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect the gateway to a Modbus TCP device",
		Long: `Ask the gateway to open a Modbus TCP connection.

Unset flags fall back to the device last used through this gateway, then
to the configured defaults (MODBUS_HOST, MODBUS_PORT, MODBUS_UNIT_ID).`,
		Example: `  modbusdash connect --host 192.168.1.50
  modbusdash connect --host plc.local --port 1502 --unit-id 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := formFromTarget(c.registry.TargetFor(c.gatewayURL))
			flags := cmd.Flags()
			if flags.Changed("host") {
				form.Host = host
			}
			if flags.Changed("port") {
				form.Port = port
			}
			if flags.Changed("unit-id") {
				form.UnitID = unitID
			}

			req, err := dashboard.ParseConnectForm(form)
			if err != nil {
				return err
			}

			msg, err := c.client().Connect(cmd.Context(), req)
			if err != nil {
				return c.fail("Connection failed", err)
			}
			if flags.Changed("nickname") {
				c.registry.SetGatewayNickname(c.gatewayURL, nickname)
			}
			c.remember(c.gatewayURL, req)

			if c.jsonOutput() {
				return c.writeJSON(map[string]any{
					"connected": true,
					"host":      req.Host,
					"port":      req.Port,
					"unit_id":   req.UnitID,
					"message":   msg,
				})
			}
			c.printer().PrintSuccess("Connected successfully!",
				ui.D("Device", fmt.Sprintf("%s:%d", req.Host, req.Port)),
				ui.D("Unit ID", strconv.Itoa(req.UnitID)),
				ui.D("Gateway", c.gatewayURL),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Modbus device host")
	cmd.Flags().StringVar(&port, "port", "", "Modbus TCP port")
	cmd.Flags().StringVar(&unitID, "unit-id", "", "Modbus unit ID")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Remember a display name for this gateway")
	return cmd
}

func (c *cli) newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the gateway's Modbus connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.client().Disconnect(cmd.Context())
			if err != nil {
				return c.fail("Disconnection failed", err)
			}
			return c.reportMessage("Disconnected", msg)
		},
	}
}

// reportMessage prints the outcome of a simple gateway action
func (c *cli) reportMessage(title, msg string) error {
	if c.jsonOutput() {
		return c.writeJSON(map[string]string{"status": gateway.StatusSuccess, "message": msg})
	}
	var details []ui.Detail
	if msg != "" {
		details = append(details, ui.D("Gateway", msg))
	}
	c.printer().PrintSuccess(title, details...)
	return nil
}

type readRow struct {
	Address int    `json:"address"`
	Label   string `json:"label"`
	Value   any    `json:"value"`
}

func (c *cli) newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [inputs|coils|registers|all]",
		Short: "Read current values with their names",
		Example: `  modbusdash read
  modbusdash read coils
  modbusdash read registers --format json`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"inputs", "coils", "registers", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var only names.Category
			if len(args) == 1 && args[0] != "all" {
				cat, err := names.ParseCategory(args[0])
				if err != nil {
					return err
				}
				only = cat
			}
			return c.runRead(cmd.Context(), only)
		},
	}
}

// runRead drives a short-lived dashboard so labels and formatting match the TUI
func (c *cli) runRead(ctx context.Context, only names.Category) error {
	d := dashboard.New(c.client(), dashboard.Options{GatewayURL: c.gatewayURL})
	defer d.Close()

	connected, err := d.CheckStatus(ctx)
	if err != nil {
		return c.fail("Status check failed", err)
	}
	if !connected {
		return fmt.Errorf("gateway is not connected to a Modbus device; run 'modbusdash connect' first")
	}
	if err := d.LoadNames(ctx); err != nil {
		logging.Warn("Names unavailable, using defaults", zap.Error(err))
	}
	if _, err := d.RefreshAll(ctx); err != nil {
		return c.fail("Read failed", err)
	}

	vm := d.View()
	var tables []dashboard.TableView
	for _, cat := range names.Categories {
		if only == "" || cat == only {
			tables = append(tables, vm.Table(cat))
		}
	}

	if c.jsonOutput() {
		out := make(map[names.Category][]readRow, len(tables))
		for _, tv := range tables {
			rows := make([]readRow, 0, len(tv.Rows))
			for _, r := range tv.Rows {
				var value any = r.On
				if tv.Category == names.Registers {
					value = r.Number
				}
				rows = append(rows, readRow{Address: r.Address, Label: r.Label, Value: value})
			}
			out[tv.Category] = rows
		}
		return c.writeJSON(out)
	}

	p := c.printer()
	for _, tv := range tables {
		p.Println(ui.RenderCategory(tv, c.tableOptions()))
	}
	return nil
}

func (c *cli) newWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a coil or holding register",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "coil <address> <on|off>",
		Short:   "Set a coil",
		Example: "  modbusdash write coil 3 on",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			value, err := parseOnOff(args[1])
			if err != nil {
				return err
			}

			msg, err := c.client().WriteCoil(cmd.Context(), addr, value)
			logging.LogWrite(string(names.Coils), addr, value, err)
			if err != nil {
				return c.fail("Write failed", err)
			}
			state := "OFF"
			if value {
				state = "ON"
			}
			return c.reportMessage(fmt.Sprintf("Coil %d set to %s", addr, state), msg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "register <address> <value>",
		Short:   "Set a holding register (0-65535)",
		Example: "  modbusdash write register 4 1200",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("register value must be a number: %q", args[1])
			}
			if value < 0 || value > gateway.MaxRegisterValue {
				return fmt.Errorf("register value must be between 0 and %d", gateway.MaxRegisterValue)
			}

			msg, err := c.client().WriteRegister(cmd.Context(), addr, value)
			logging.LogWrite(string(names.Registers), addr, value, err)
			if err != nil {
				return c.fail("Write failed", err)
			}
			return c.reportMessage(fmt.Sprintf("Register %d set to %d", addr, value), msg)
		},
	})

	return cmd
}

func parseAddress(s string) (int, error) {
	addr, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || addr < 0 {
		return 0, fmt.Errorf("invalid address %q: must be a non-negative integer", s)
	}
	return addr, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid coil value %q: use on or off", s)
	}
}

func (c *cli) newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Find gateways on the local network",
		Long: `Browse mDNS for Modbus HTTP gateways.

Gateways advertise _http._tcp with "modbus" in the instance name, the
hostname or a TXT record.`,
		Example: `  modbusdash scan
  modbusdash scan --timeout 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.jsonOutput() {
				c.printer().PrintHeader("Gateway Scan", cmd.CommandPath(),
					ui.D("Service", discovery.ServiceType),
					ui.D("Timeout", c.timeout.String()),
				)
			}

			gws, err := discovery.ScanForGateways(cmd.Context(), c.timeout)
			if err != nil {
				return c.fail("Scan failed", err)
			}

			if c.jsonOutput() {
				out := make([]map[string]any, 0, len(gws))
				for _, gw := range gws {
					out = append(out, map[string]any{
						"instance": gw.Instance,
						"hostname": gw.Hostname,
						"url":      gw.BaseURL(),
						"metadata": gw.Metadata,
					})
				}
				return c.writeJSON(out)
			}

			p := c.printer()
			p.Println(ui.RenderGateways(gws, c.tableOptions()))
			if len(gws) == 0 {
				p.Println(ui.MutedStyle.Render("Try a longer --timeout, or pass --gateway <url> directly."))
				return nil
			}
			p.Println(ui.MutedStyle.Render("Use 'modbusdash --gateway <url>' to open one."))
			return nil
		},
	}
}

func (c *cli) newShutdownCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the gateway process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := c.confirm("SHUT DOWN GATEWAY",
					[]string{"The gateway process exits and must be restarted by hand"},
					"shutdown")
				if err != nil || !ok {
					return err
				}
			}

			msg, err := c.client().Shutdown(cmd.Context())
			if err != nil {
				return c.fail("Shutdown failed", err)
			}
			return c.reportMessage("Gateway shutting down", msg)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// confirm asks for a typed phrase. Non-interactive runs must pass --yes.
// A declined prompt returns (false, nil).
func (c *cli) confirm(title string, warnings []string, phrase string) (bool, error) {
	if !isInteractive() {
		return false, fmt.Errorf("refusing to continue without confirmation; pass --yes")
	}
	return ui.Confirm(c.in, c.out, title, warnings, phrase), nil
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.jsonOutput() {
				return c.writeJSON(version.Get())
			}
			fmt.Fprintf(c.out, "modbusdash %s\n", version.Full())
			return nil
		},
	}
}
