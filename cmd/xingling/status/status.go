// Package statuscmder provides the status command for checking the
// completion service and the local session state.
package statuscmder

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

const statusLongDesc string = `Show the completion service status and the selected session.

Probes GET /status on the configured server and prints the fields it
reports, followed by the selected session and its message count.

Examples:
  xingling status
  xingling status --server-url http://localhost:8000`

const statusShortDesc string = "Show service and session status"

func NewStatusCmd() *cobra.Command {
	var flags clientapp.Flags

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := clientapp.Open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			return runStatus(cmd, client)
		},
	}

	flags.Register(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, client *clientapp.Client) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n  %s  %s\n", cliui.KeyStyle.Render("Server: "), cliui.ValueStyle.Render(client.Config.Client.ServerURL))

	status, err := client.Status(cmd.Context())
	if err != nil {
		fmt.Fprintf(w, "  %s  %s unreachable: %v\n", cliui.KeyStyle.Render("Service:"), cliui.FailMark, err)
	} else {
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("Service:"), cliui.SuccessMark)
		printFields(w, status)
	}

	sess := client.Store().Current()
	fmt.Fprintf(w, "\n  %s  %s %s\n", cliui.KeyStyle.Render("Session:"),
		cliui.NameStyle.Render(sess.Name),
		cliui.DimStyle.Render("("+sess.ID+")"),
	)
	fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("Messages:"), cliui.ValueStyle.Render(strconv.Itoa(len(sess.Messages))))
	fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render("Sessions:"), cliui.ValueStyle.Render(strconv.Itoa(len(client.Store().List()))))

	return err
}

func printFields(w io.Writer, fields map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(w, "    %s %s\n", cliui.DimStyle.Render(k+":"), cliui.ValueStyle.Render(fmt.Sprint(fields[k])))
	}
}
