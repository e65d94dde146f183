package settingscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

func newSetCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a setting",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		key, value := args[0], args[1]
		if !appstate.IsValidKey(key) {
			return fmt.Errorf("unknown setting: %q\n\nValid keys: %s", key, strings.Join(appstate.ValidKeys(), ", "))
		}

		if err := client.Settings().Set(cmd.Context(), key, value); err != nil {
			return err
		}

		stored, _ := client.Settings().Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s Set %s = %s\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(key),
			cliui.ValueStyle.Render(display(key, stored)),
		)
		return nil
	})
}
