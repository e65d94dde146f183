package settingscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
)

func newListCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
	}, func(cmd *cobra.Command, client *clientapp.Client, _ []string) error {
		keys := appstate.ValidKeys()

		maxLen := 0
		for _, k := range keys {
			maxLen = max(maxLen, len(k))
		}

		w := cmd.OutOrStdout()
		for _, key := range keys {
			value, err := client.Settings().Get(key)
			if err != nil {
				return err
			}

			if value == "" {
				fmt.Fprintf(w, "%-*s = <not set>\n", maxLen, key)
			} else {
				fmt.Fprintf(w, "%-*s = %q\n", maxLen, key, display(key, value))
			}
		}
		return nil
	})
}
