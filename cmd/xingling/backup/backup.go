// Package backupcmder provides the backup command for exporting and
// importing every session together with the settings.
package backupcmder

import (
	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
)

const backupLongDesc string = `Export or import all sessions and settings.

Backups are a single JSON document holding the session list, the selected
session and every setting, including API keys. The format is shared with
the web client, so backups can move between the two.

Use subcommands to export or import:
  xingling backup export [file]   Write a backup (default: xingling-backup-<date>.json)
  xingling backup import <file>   Replace all sessions and settings from a backup

Use "-" as the file to write to stdout or read from stdin.`

const backupShortDesc string = "Export or import sessions and settings"

func NewBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: backupShortDesc,
		Long:  backupLongDesc,
	}

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())

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
