// Package configcmder provides the config command for managing the
// persistent xingling configuration stored in the .xingling/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/cliui"
	"github.com/zhyuuka/xingling-chat/pkg/config"
)

const configLongDesc string = `Manage persistent xingling configuration.

Configuration is stored as config.toml in the .xingling/ directory and
provides default values for command flags. CLI flags and XINGLING_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.server_url, client.timeout,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  log.file, log.json,
  telemetry.enabled, telemetry.dir,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  xingling config set <key> <value>    Set a configuration value
  xingling config get <key>            Get a configuration value
  xingling config list                 List all configuration values

Examples:
  xingling config set client.server_url http://localhost:8000
  xingling config set storage.driver postgres
  xingling config get client.timeout
  xingling config list`

const configShortDesc string = "Manage persistent xingling configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
