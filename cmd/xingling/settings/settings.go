// Package settingscmder provides the settings command for the application
// settings kept alongside the sessions: display names, avatars, API and
// search configuration and reasoning visibility.
package settingscmder

import (
	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/utils"
)

const settingsLongDesc string = `Manage application settings.

Settings live in the same storage as the sessions and travel with backups.
They differ from "xingling config", which configures how this CLI reaches
the server and where it stores data.

Keys:
  assistant.name, assistant.avatar, user.name, user.avatar, wallpaper,
  api.key, api.base_url, api.model, api.system_prompt,
  search.enabled, search.provider, search.api_key, search.result_count,
  show_reasoning

Avatar and wallpaper values may be a URL, a data URI or a path to a local
image, which is embedded as a data URI.

Use subcommands to get, set, or list settings:
  xingling settings set <key> <value>   Set a setting
  xingling settings get <key>           Get a setting
  xingling settings list                List all settings
  xingling settings set-key <api|search>  Store an API key without echoing it

Examples:
  xingling settings set api.model deepseek-reasoner
  xingling settings set show_reasoning false
  xingling settings set user.avatar ~/me.png
  echo $TAVILY_KEY | xingling settings set-key search`

const settingsShortDesc string = "Manage application settings"

func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: settingsShortDesc,
		Long:  settingsLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSetKeyCmd())

	return cmd
}

func withClient(cmd *cobra.Command, run func(*cobra.Command, *clientapp.Client, []string) error) *cobra.Command {
	var flags clientapp.Flags
	flags.Register(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := clientapp.Open(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		return run(cmd, client, args)
	}
	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return appstate.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveDefault
}

// display renders a setting value for the terminal. Secrets are masked and
// embedded images are shortened.
func display(key, value string) string {
	if appstate.IsSecretKey(key) {
		return appstate.Mask(value)
	}
	return utils.Truncate(value, 64)
}
