package backupcmder

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/backup"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

func newExportCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup of all sessions and settings",
		Args:  cobra.MaximumNArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		path := backup.FileName(time.Now())
		if len(args) == 1 {
			path = args[0]
		}

		state := client.Settings().State()
		if path == "-" {
			return backup.Export(cmd.OutOrStdout(), client.Store(), state)
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("creating backup file: %w", err)
		}
		if err := writeBackup(f, client, path); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing backup file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Exported %s sessions to %s\n\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(strconv.Itoa(len(client.Store().List()))),
			cliui.ValueStyle.Render(path),
		)
		return nil
	})
}

func writeBackup(w io.Writer, client *clientapp.Client, path string) error {
	if err := backup.Export(w, client.Store(), client.Settings().State()); err != nil {
		return fmt.Errorf("writing backup %s: %w", path, err)
	}
	return nil
}
