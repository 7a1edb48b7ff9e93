package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/names"
	"github.com/muurk/modbusdash/internal/ui"
)

func (c *cli) newNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Manage the names the gateway keeps for each address",
		Long: `Manage address names.

Names live on the gateway. 'set' changes the in-memory table; 'save'
writes it to the gateway's names file and 'reload' reads that file back.`,
	}

	cmd.AddCommand(
		c.newNamesListCmd(),
		c.newNamesSetCmd(),
		c.newNamesSaveCmd(),
		c.newNamesReloadCmd(),
		c.newNamesResetCmd(),
		c.newNamesExportCmd(),
		c.newNamesImportCmd(),
	)
	return cmd
}

// printNames renders a table, or encodes it on --format json
func (c *cli) printNames(tbl names.Table, only names.Category) error {
	if c.jsonOutput() {
		if only != "" {
			return c.writeJSON(names.Table{only: tbl[only]})
		}
		return tbl.Encode(c.out)
	}
	c.printer().Println(ui.RenderNames(tbl, only, c.tableOptions()))
	return nil
}

func (c *cli) newNamesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list [category]",
		Aliases: []string{"ls"},
		Short:   "List names (custom names are marked with *)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only names.Category
			if len(args) == 1 {
				cat, err := names.ParseCategory(args[0])
				if err != nil {
					return err
				}
				only = cat
			}

			tbl, err := c.client().GetNames(cmd.Context())
			if err != nil {
				return c.fail("Failed to fetch names", err)
			}
			return c.printNames(tbl, only)
		},
	}
}

func (c *cli) newNamesSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <address> <name>",
		Short: "Name one address",
		Long: `Name one address. Words after the address are joined with spaces.
An empty name restores the default label on the gateway.`,
		Example: `  modbusdash names set coils 0 Pump
  modbusdash names set registers 4 Tank level`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := names.ParseCategory(args[0])
			if err != nil {
				return err
			}
			addr, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(strings.Join(args[2:], " "))

			msg, err := c.client().SetName(cmd.Context(), cat, addr, name)
			if err != nil {
				return c.fail("Failed to set name", err)
			}
			return c.reportMessage(fmt.Sprintf("%s %d renamed", cat.Prefix(), addr), msg)
		},
	}
}

func (c *cli) newNamesSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the gateway's names to its names file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.client().SaveNames(cmd.Context())
			if err != nil {
				return c.fail("Failed to save names", err)
			}
			return c.reportMessage("Names saved", msg)
		},
	}
}

func (c *cli) newNamesReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the names file on the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, msg, err := c.client().LoadNames(cmd.Context())
			if err != nil {
				return c.fail("Failed to reload names", err)
			}
			if c.jsonOutput() {
				return tbl.Encode(c.out)
			}
			c.printer().PrintSuccess("Names reloaded", ui.D("Gateway", msg))
			return c.printNames(tbl, "")
		},
	}
}

func (c *cli) newNamesResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore every default name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !isInteractive() {
					return fmt.Errorf("refusing to reset names without confirmation; pass --yes")
				}
				if !ui.ConfirmNamesReset(c.in, c.out) {
					return nil
				}
			}

			_, msg, err := c.client().ResetNames(cmd.Context())
			if err != nil {
				return c.fail("Failed to reset names", err)
			}
			return c.reportMessage("Names reset to defaults", msg)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (c *cli) newNamesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Download the names file",
		Long: `Download the gateway's names file. The default destination is
` + gateway.DefaultExportName + `; "-" writes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := gateway.DefaultExportName
			if len(args) == 1 {
				path = args[0]
			}

			if path == "-" {
				if _, err := c.client().ExportNames(cmd.Context(), c.out); err != nil {
					return c.fail("Failed to export names", err)
				}
				return nil
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if _, err := c.client().ExportNames(cmd.Context(), f); err != nil {
				_ = f.Close()
				_ = os.Remove(path)
				return c.fail("Failed to export names", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			if c.jsonOutput() {
				return c.writeJSON(map[string]string{"status": gateway.StatusSuccess, "file": path})
			}
			c.printer().PrintSuccess("Names exported", ui.D("File", path))
			return nil
		},
	}
}

func (c *cli) newNamesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upload a names file to the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			data, err := names.ReadFile(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			tbl, msg, err := c.client().ImportNames(cmd.Context(), filepath.Base(path), bytes.NewReader(data))
			if err != nil {
				return c.fail("Failed to import names", err)
			}
			if c.jsonOutput() {
				return tbl.Encode(c.out)
			}
			c.printer().PrintSuccess("Names imported", ui.D("File", path), ui.D("Gateway", msg))
			return nil
		},
	}
}
