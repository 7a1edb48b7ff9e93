// Package config manages the modbusdash configuration file.
//
// The file holds application preferences (default gateway URL, default Modbus
// target, refresh timings, timeouts) and a small memory of gateways the user
// has connected through, so the connect form can be pre-filled.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/modbusdash/config.yaml or $HOME/.config/modbusdash/config.yaml
//   - macOS: $HOME/.config/modbusdash/config.yaml
//   - Windows: %LOCALAPPDATA%\modbusdash\config.yaml
//
// Durations are written as Go duration strings ("5s", "500ms").
//
// # Precedence
//
// Command-line flags win over environment variables, which win over the file,
// which wins over built-in defaults. Preferences.ApplyEnv applies the
// environment layer.
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	registry.RememberConnection(url, target, time.Now())
//	return registry.Save()
package config
