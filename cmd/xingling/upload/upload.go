// Package uploadcmder provides the upload command for sending a document to
// the completion service for analysis.
package uploadcmder

import (
	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
)

const uploadLongDesc string = `Upload a document for analysis in the selected session.

A marker message naming the file is added to the transcript, then the
analysis is streamed back like a chat reply. If the upload or the analysis
fails, the transcript records that with a short notice.

Examples:
  xingling upload report.pdf
  xingling upload notes.txt --server-url http://localhost:8000`

const uploadShortDesc string = "Upload a document for analysis"

func NewUploadCmd() *cobra.Command {
	var flags clientapp.Flags

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientapp.Open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			state := client.Settings().State()
			p := clientapp.NewStreamPrinter(cmd.OutOrStdout(), state.AssistantName, state.ShowReasoning)
			_, err = client.Upload(cmd.Context(), args[0], p.Observe)
			p.Finish()
			return err
		},
	}

	flags.Register(cmd)

	return cmd
}
