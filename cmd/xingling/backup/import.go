package backupcmder

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/backup"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

const importLongDesc string = `Replace all sessions and settings with the contents of a backup.

The backup is validated before anything changes; a malformed file leaves
the current data untouched. Settings missing from the backup are reset to
their defaults.

Examples:
  xingling backup import xingling-backup-2024-05-01.json
  cat backup.json | xingling backup import -`

func newImportCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace all sessions and settings from a backup",
		Long:  importLongDesc,
		Args:  cobra.ExactArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening backup: %w", err)
			}
			defer f.Close()
			r = f
		}

		doc, err := backup.Import(cmd.Context(), r, client.Store(), client.Settings())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Imported %s sessions, now in %s\n\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(strconv.Itoa(len(doc.Sessions))),
			cliui.NameStyle.Render(client.Store().Current().Name),
		)
		return nil
	})
}
