package settingscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

const getLongDesc string = `Get a setting.

Secret values (api.key, search.api_key) are masked unless --reveal is set.

Examples:
  xingling settings get api.model
  xingling settings get api.key --reveal`

func newGetCmd() *cobra.Command {
	var reveal bool

	cmd := withClient(&cobra.Command{
		Use:               "get <key>",
		Short:             "Get a setting",
		Long:              getLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		key := args[0]
		if !appstate.IsValidKey(key) {
			return fmt.Errorf("unknown setting: %q\n\nValid keys: %s", key, strings.Join(appstate.ValidKeys(), ", "))
		}

		value, err := client.Settings().Get(key)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch {
		case value == "":
			fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(key), cliui.DimStyle.Render("<not set>"))
		case reveal:
			fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
		default:
			fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(display(key, value)))
		}
		return nil
	})

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets and images in full")
	return cmd
}
