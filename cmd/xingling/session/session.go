// Package sessioncmder provides the session command for managing chat
// sessions without entering the interactive chat.
package sessioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
	"github.com/zhyuuka/xingling-chat/pkg/session"
)

const sessionLongDesc string = `Manage chat sessions.

Each session has its own transcript and an optional system prompt that
overrides the default one. Sessions are addressed by id or by their
position in "xingling session list".

Use subcommands to manage sessions:
  xingling session list                    List sessions
  xingling session new [--prompt <text>]   Create and select a session
  xingling session switch <ref>            Select a session
  xingling session rename <ref> <name>     Rename a session
  xingling session prompt <ref> [text]     Set or clear a session prompt
  xingling session show [ref]              Print a transcript
  xingling session clear [ref]             Clear a transcript
  xingling session delete <ref>            Delete a session
  xingling session delete-message <ref> <n>  Delete one message`

const sessionShortDesc string = "Manage chat sessions"

func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   sessionShortDesc,
		Long:    sessionLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newSwitchCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newPromptCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newDeleteMessageCmd())

	return cmd
}

// withClient builds a subcommand that opens the client before run.
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

// resolve returns the session named by args[i], or the current one when
// args is too short.
func resolve(store *session.Store, args []string, i int) (string, error) {
	if len(args) <= i {
		return store.CurrentID(), nil
	}
	sess, err := clientapp.ResolveSession(store, args[i])
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.SuccessMark, fmt.Sprintf(format, args...))
}
