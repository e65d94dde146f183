// Package xinglingcmder
package xinglingcmder

import (
	"github.com/spf13/cobra"

	backupcmder "github.com/zhyuuka/xingling-chat/cmd/xingling/backup"
	chatcmder "github.com/zhyuuka/xingling-chat/cmd/xingling/chat"
	configcmder "github.com/zhyuuka/xingling-chat/cmd/xingling/config"
	sessioncmder "github.com/zhyuuka/xingling-chat/cmd/xingling/session"
	settingscmder "github.com/zhyuuka/xingling-chat/cmd/xingling/settings"
	statuscmder "github.com/zhyuuka/xingling-chat/cmd/xingling/status"
	uploadcmder "github.com/zhyuuka/xingling-chat/cmd/xingling/upload"
	versioncmder "github.com/zhyuuka/xingling-chat/cmd/xingling/version"
)

const xinglingLongDesc string = `Xingling is a terminal chat client for a streaming completion service.

Conversations are kept in named sessions that survive restarts, and
replies (including the model's reasoning) are shown as they stream in.

Start chatting with:
  xingling chat               Interactive chat in the selected session
  xingling chat "question"    Ask a single question
  xingling session list       See your sessions`

const xinglingShortDesc string = "Xingling - streaming chat client"

func NewXinglingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "xingling",
		Short:        xinglingShortDesc,
		Long:         xinglingLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .xingling/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(sessioncmder.NewSessionCmd())
	cmd.AddCommand(settingscmder.NewSettingsCmd())
	cmd.AddCommand(backupcmder.NewBackupCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
