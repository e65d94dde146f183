package sessioncmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

func newListCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions",
		Args:    cobra.NoArgs,
	}, runList)
}

func runList(cmd *cobra.Command, client *clientapp.Client, _ []string) error {
	w := cmd.OutOrStdout()
	store := client.Store()
	current := store.CurrentID()

	fmt.Fprintln(w)
	for i, sess := range store.List() {
		mark := " "
		if sess.ID == current {
			mark = cliui.CurrentMark
		}
		fmt.Fprintf(w, "  %s %s %s %s\n",
			mark,
			cliui.DimStyle.Render(fmt.Sprintf("%d.", i+1)),
			cliui.NameStyle.Render(sess.Name),
			cliui.DimStyle.Render(fmt.Sprintf("%s · %d messages · %s",
				sess.ID,
				len(sess.Messages),
				time.UnixMilli(sess.CreatedAt).Format(time.DateTime),
			)),
		)
	}
	fmt.Fprintln(w)

	return nil
}
