package sessioncmder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
	"github.com/zhyuuka/xingling-chat/pkg/session"
)

func newNewCmd() *cobra.Command {
	var prompt string

	cmd := withClient(&cobra.Command{
		Use:   "new",
		Short: "Create and select a new session",
		Long: `Create a new, empty session and select it.

The session starts with the default system prompt from settings unless
--prompt is given.`,
		Args: cobra.NoArgs,
	}, func(cmd *cobra.Command, client *clientapp.Client, _ []string) error {
		if !cmd.Flags().Changed("prompt") {
			prompt = client.Settings().State().API.SystemPrompt
		}

		sess, err := client.Store().Create(cmd.Context(), prompt)
		if err != nil {
			return err
		}

		success(cmd.OutOrStdout(), "Created %s %s",
			cliui.NameStyle.Render(sess.Name),
			cliui.DimStyle.Render("("+sess.ID+")"))
		return nil
	})

	cmd.Flags().StringVar(&prompt, "prompt", "", "System prompt for the new session")
	return cmd
}

func newSwitchCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "switch <ref>",
		Short: "Select a session",
		Args:  cobra.ExactArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		store := client.Store()
		sess, err := clientapp.ResolveSession(store, args[0])
		if err != nil {
			return err
		}

		changed, err := store.Switch(cmd.Context(), sess.ID)
		if err != nil {
			return err
		}
		if !changed {
			success(cmd.OutOrStdout(), "Already in %s", cliui.NameStyle.Render(sess.Name))
			return nil
		}
		success(cmd.OutOrStdout(), "Switched to %s", cliui.NameStyle.Render(sess.Name))
		return nil
	})
}

func newRenameCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "rename <ref> <name>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		id, err := resolve(client.Store(), args, 0)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return errors.New("session name cannot be empty")
		}
		if err := client.Store().Rename(cmd.Context(), id, name); err != nil {
			return err
		}

		success(cmd.OutOrStdout(), "Renamed to %s", cliui.NameStyle.Render(name))
		return nil
	})
}

func newPromptCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "prompt <ref> [text...]",
		Short: "Set or clear a session's system prompt",
		Long: `Set the system prompt override of a session.

Without text the override is cleared and the default system prompt from
settings applies again.`,
		Args: cobra.MinimumNArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		id, err := resolve(client.Store(), args, 0)
		if err != nil {
			return err
		}

		prompt := strings.Join(args[1:], " ")
		if err := client.Store().SetSystemPrompt(cmd.Context(), id, prompt); err != nil {
			return err
		}

		if prompt == "" {
			success(cmd.OutOrStdout(), "Cleared the session prompt")
		} else {
			success(cmd.OutOrStdout(), "Set the session prompt")
		}
		return nil
	})
}

func newShowCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "show [ref]",
		Short: "Print a session transcript",
		Args:  cobra.MaximumNArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		id, err := resolve(client.Store(), args, 0)
		if err != nil {
			return err
		}
		sess, err := client.Store().Get(id)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		state := client.Settings().State()
		names := clientapp.DisplayNames{User: state.UserName, Assistant: state.AssistantName}

		fmt.Fprintf(w, "\n  %s %s\n", cliui.NameStyle.Render(sess.Name), cliui.DimStyle.Render("("+sess.ID+")"))
		if prompt := sess.EffectiveSystemPrompt(state.API.SystemPrompt); prompt != "" {
			fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Prompt:"), cliui.DimStyle.Render(prompt))
		}
		fmt.Fprintln(w)

		if len(sess.Messages) == 0 {
			fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("No messages yet."))
			return nil
		}
		for i, m := range sess.Messages {
			fmt.Fprintf(w, "%s ", cliui.DimStyle.Render(strconv.Itoa(i+1)+"."))
			clientapp.PrintMessage(w, m, names, state.ShowReasoning)
		}
		return nil
	})
}

func newClearCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "clear [ref]",
		Short: "Clear a session transcript here and on the server",
		Args:  cobra.MaximumNArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		id, err := resolve(client.Store(), args, 0)
		if err != nil {
			return err
		}
		if err := client.Clear(cmd.Context(), id); err != nil {
			return err
		}

		success(cmd.OutOrStdout(), "Cleared %s", cliui.DimStyle.Render(id))
		return nil
	})
}

func newDeleteCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a session",
		Long: `Delete a session and its transcript.

The last remaining session cannot be deleted. Deleting the selected
session selects another one.`,
		Args: cobra.ExactArgs(1),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		store := client.Store()
		sess, err := clientapp.ResolveSession(store, args[0])
		if err != nil {
			return err
		}

		if err := store.Delete(cmd.Context(), sess.ID); err != nil {
			if errors.Is(err, session.ErrLastSession) {
				return errors.New("at least one session must remain")
			}
			return err
		}

		success(cmd.OutOrStdout(), "Deleted %s, now in %s",
			cliui.NameStyle.Render(sess.Name),
			cliui.NameStyle.Render(store.Current().Name))
		return nil
	})
}

func newDeleteMessageCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:   "delete-message <ref> <n>",
		Short: "Delete the n-th message (1-based) of a session",
		Args:  cobra.ExactArgs(2),
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		id, err := resolve(client.Store(), args, 0)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid message number %q", args[1])
		}

		if err := client.Store().DeleteMessage(cmd.Context(), id, n-1); err != nil {
			return err
		}

		success(cmd.OutOrStdout(), "Deleted message %d", n)
		return nil
	})
}
