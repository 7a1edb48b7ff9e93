package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/modbusdash/internal/config"
	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/logging"
	"github.com/muurk/modbusdash/internal/ui"
	"github.com/muurk/modbusdash/internal/version"
)

// Output formats
const (
	formatTable = "table"
	formatJSON  = "json"
)

// cli holds flag values and the loaded configuration for one invocation
type cli struct {
	gatewayURL string
	timeout    time.Duration
	logLevel   string
	logFile    string
	format     string
	configPath string

	registry *config.Registry

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "modbusdash",
		Short: "Modbus HTTP Gateway Dashboard",
		Long: `A dashboard client for a Modbus TCP HTTP gateway.

Reads and writes discrete inputs, coils and holding registers through the
gateway's REST API and manages the names the gateway stores for them.

If no command is specified, the full-screen dashboard launches.`,
		Version: version.Version,
		Example: `  # Launch the dashboard against the configured gateway
  modbusdash

  # Pick a gateway from an mDNS scan first
  modbusdash tui --scan

  # Scripting
  modbusdash connect --host 192.168.1.50 --unit-id 1
  modbusdash read coils --format json
  modbusdash write register 4 1200`,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.gatewayURL, "gateway", "g", gateway.DefaultBaseURL, "Gateway base URL (env "+config.EnvGateway+")")
	flags.DurationVar(&c.timeout, "timeout", gateway.DefaultTimeout, "Request timeout; for scan, how long to browse")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.StringVar(&c.logFile, "log-file", "", "Write logs to this file in place of stderr")
	flags.StringVar(&c.format, "format", formatTable, "Output format (table, json)")
	flags.StringVar(&c.configPath, "config", "", "Config file (default is the per-user config path)")

	tuiCmd := c.newTUICmd()
	rootCmd.RunE = tuiCmd.RunE
	rootCmd.Flags().AddFlagSet(tuiCmd.Flags())

	rootCmd.AddCommand(
		tuiCmd,
		c.newStatusCmd(),
		c.newConnectCmd(),
		c.newDisconnectCmd(),
		c.newReadCmd(),
		c.newWriteCmd(),
		c.newNamesCmd(),
		c.newScanCmd(),
		c.newShutdownCmd(),
		c.newConfigCmd(),
		c.newVersionCmd(),
	)

	return rootCmd
}

// setup loads the config file, applies environment overrides and then
// explicitly set flags, and starts logging.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	// Past argument parsing: failures are not usage errors
	cmd.SilenceUsage = true

	if c.format != formatTable && c.format != formatJSON {
		return fmt.Errorf("unknown output format %q (use table or json)", c.format)
	}

	var err error
	if c.configPath != "" {
		c.registry, err = config.LoadFile(c.configPath)
	} else {
		c.registry, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	prefs := c.registry.Preferences
	if err := prefs.ApplyEnv(getenv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("gateway") {
		c.gatewayURL = prefs.GatewayURL
	}
	c.gatewayURL = gateway.NormalizeBaseURL(c.gatewayURL)
	if !flags.Changed("timeout") {
		c.timeout = prefs.HTTP.Timeout
		if cmd.Name() == "scan" {
			c.timeout = prefs.Discovery.Timeout
		}
	}
	if !flags.Changed("log-level") {
		c.logLevel = prefs.LogLevel
	}

	return c.initLogging(cmd)
}

func (c *cli) initLogging(cmd *cobra.Command) error {
	opts := logging.Options{Level: c.logLevel, OutputPath: c.logFile}

	// The dashboard owns the terminal, so its logs go to a file
	if opts.OutputPath == "" && opts.Level != "" && isTUICommand(cmd) {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		opts.OutputPath = filepath.Join(dir, "modbusdash.log")
	}

	if err := logging.InitializeWithOptions(opts); err != nil {
		return err
	}
	logging.Debug("Configuration loaded",
		zap.String("gateway", c.gatewayURL),
		zap.Duration("timeout", c.timeout),
		zap.String("command", cmd.CommandPath()),
	)
	return nil
}

func isTUICommand(cmd *cobra.Command) bool {
	return cmd.Name() == "tui" || !cmd.HasParent()
}

// Swapped out by tests
var (
	getenv        = os.Getenv
	isInteractive = ui.IsInteractive
)

// client builds a gateway client from the effective settings
func (c *cli) client() *gateway.Client {
	client := gateway.NewClient(c.gatewayURL)
	client.SetTimeout(c.timeout)
	client.UserAgent = "modbusdash/" + version.Version
	return client
}

func (c *cli) printer() *ui.Printer {
	return ui.NewPrinter(c.out)
}

func (c *cli) tableOptions() ui.TableOptions {
	return ui.TableOptions{Color: isInteractive()}
}

func (c *cli) jsonOutput() bool {
	return c.format == formatJSON
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fail prints a styled error with a troubleshooting hint and returns err
// wrapped with title. JSON output skips the box.
func (c *cli) fail(title string, err error) error {
	if !c.jsonOutput() {
		var hints []string
		if hint := gateway.GetTroubleshootingHint(err); hint != "" {
			hints = append(hints, hint)
		}
		ui.NewPrinter(c.errOut).PrintError(title, err, hints...)
	}
	return fmt.Errorf("%s: %w", title, err)
}

// saveConfig persists the registry. Failures only warn: the gateway
// operation that triggered the save already succeeded.
func (c *cli) saveConfig() {
	var err error
	if c.configPath != "" {
		err = c.registry.SaveFile(c.configPath)
	} else {
		err = c.registry.Save()
	}
	if err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}
