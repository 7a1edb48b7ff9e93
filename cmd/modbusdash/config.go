package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/modbusdash/internal/config"
	"github.com/muurk/modbusdash/internal/ui"
)

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}
	cmd.AddCommand(c.newConfigShowCmd(), c.newConfigInitCmd())
	return cmd
}

func (c *cli) configFilePath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.GetConfigPath()
}

func (c *cli) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after environment overrides are applied.
Command-line flags are not reflected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFilePath()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(c.registry)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			// JSON mirrors the YAML keys, durations included
			if c.jsonOutput() {
				var doc map[string]any
				if err := yaml.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("failed to convert config: %w", err)
				}
				doc["path"] = path
				return c.writeJSON(doc)
			}

			p := c.printer()
			p.Println(ui.MutedStyle.Render("# " + path))
			p.Print(string(data))
			return nil
		},
	}
}

func (c *cli) newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				path string
				err  error
			)
			if c.configPath != "" {
				path = c.configPath
				if _, statErr := os.Stat(path); statErr == nil && !force {
					err = fmt.Errorf("config file already exists: %s", path)
				} else if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
					err = statErr
				} else {
					err = config.NewRegistry().SaveFile(path)
				}
			} else {
				path, err = config.CreateDefaultConfig(force)
			}
			if err != nil {
				return fmt.Errorf("%w (use --force to overwrite)", err)
			}

			c.printer().PrintSuccess("Config created", ui.D("File", path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
