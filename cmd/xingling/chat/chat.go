// Package chatcmder provides the chat command: an interactive, multi-session
// chat against the completion service.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/chat"
	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
	"github.com/zhyuuka/xingling-chat/pkg/session"
	"github.com/zhyuuka/xingling-chat/pkg/stream"
)

type chatCommander struct {
	flags    clientapp.Flags
	markdown bool

	client *clientapp.Client
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

const chatLongDesc string = `Chat with the assistant in the selected session.

Replies are streamed as they arrive. When reasoning display is enabled
("xingling settings set show_reasoning true") the model's reasoning is
printed dimmed before the answer. Every change to the transcript is
saved immediately, so an interrupted reply is never lost.

With arguments, sends a single message and exits. Without arguments,
starts an interactive session. Commands available inside it:
  /new [prompt]       Start a new session, optionally with its own system prompt
  /sessions           List sessions
  /switch <ref>       Select a session by id or list position
  /rename <name>      Rename the current session
  /prompt [text]      Set or clear the current session's system prompt
  /delete [ref]       Delete a session (defaults to the current one)
  /clear              Clear the current transcript here and on the server
  /upload <path>      Send a document for analysis
  /history            Print the current transcript
  /exit               Quit (Ctrl+D also works)

Examples:
  xingling chat
  xingling chat "Summarize the plot of Hamlet"
  xingling chat --markdown --server-url http://localhost:8000`

const chatShortDesc string = "Chat with the assistant"

// maxInputLine bounds a single line read by the interactive loop.
const maxInputLine = 4 << 20

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientapp.Open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			cmder.client = client
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			if len(args) > 0 {
				return cmder.send(cmd.Context(), strings.Join(args, " "))
			}
			return cmder.repl(cmd.Context())
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Wait for each reply and render it as markdown")

	return cmd
}

func (c *chatCommander) repl(ctx context.Context) error {
	c.printHeader()

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxInputLine)
	for {
		state := c.client.Settings().State()
		fmt.Fprint(c.out, cliui.UserStyle.Render(state.UserName+"> "))
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		var err error
		if strings.HasPrefix(input, "/") {
			err = c.command(ctx, input)
		} else {
			err = c.send(ctx, input)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			fmt.Fprintf(c.errOut, "  %s %v\n\n", cliui.FailMark, err)
		}
	}

	return scanner.Err()
}

func (c *chatCommander) printHeader() {
	sess := c.client.Store().Current()
	state := c.client.Settings().State()

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.CurrentMark,
		cliui.NameStyle.Render(sess.Name),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(sess.Messages))),
	)
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.ValueStyle.Render(state.API.Model),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help lists commands, /exit or Ctrl+D quits."))
}

func (c *chatCommander) command(ctx context.Context, input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	store := c.client.Store()

	switch name {
	case "/help":
		fmt.Fprintln(c.out, chatLongDesc)
		fmt.Fprintln(c.out)
		return nil

	case "/new":
		prompt := arg
		if prompt == "" {
			prompt = c.client.Settings().State().API.SystemPrompt
		}
		sess, err := store.Create(ctx, prompt)
		if err != nil {
			return err
		}
		c.notice("Started %s", cliui.NameStyle.Render(sess.Name))
		return nil

	case "/sessions":
		c.listSessions()
		return nil

	case "/switch":
		if arg == "" {
			return errors.New("usage: /switch <id|position>")
		}
		sess, err := clientapp.ResolveSession(store, arg)
		if err != nil {
			return err
		}
		changed, err := store.Switch(ctx, sess.ID)
		if err != nil {
			return err
		}
		if changed {
			c.printHistory()
		}
		c.notice("Now in %s", cliui.NameStyle.Render(sess.Name))
		return nil

	case "/rename":
		if arg == "" {
			return errors.New("usage: /rename <name>")
		}
		if err := store.Rename(ctx, store.CurrentID(), arg); err != nil {
			return err
		}
		c.notice("Renamed to %s", cliui.NameStyle.Render(store.Current().Name))
		return nil

	case "/prompt":
		if err := store.SetSystemPrompt(ctx, store.CurrentID(), arg); err != nil {
			return err
		}
		if arg == "" {
			c.notice("Session prompt cleared, using the default")
		} else {
			c.notice("Session prompt set")
		}
		return nil

	case "/delete":
		target := store.Current()
		if arg != "" {
			var err error
			if target, err = clientapp.ResolveSession(store, arg); err != nil {
				return err
			}
		}
		if err := store.Delete(ctx, target.ID); err != nil {
			if errors.Is(err, session.ErrLastSession) {
				return errors.New("at least one session must remain")
			}
			return err
		}
		c.notice("Deleted %s, now in %s",
			cliui.NameStyle.Render(target.Name),
			cliui.NameStyle.Render(store.Current().Name))
		return nil

	case "/clear":
		if err := c.client.Clear(ctx, store.CurrentID()); err != nil {
			return err
		}
		c.notice("Transcript cleared")
		return nil

	case "/upload":
		if arg == "" {
			return errors.New("usage: /upload <path>")
		}
		return c.upload(ctx, arg)

	case "/history":
		c.printHistory()
		return nil

	default:
		return fmt.Errorf("unknown command %s, try /help", name)
	}
}

func (c *chatCommander) send(ctx context.Context, message string) error {
	return c.turn(func(observe stream.Observer) (chat.Turn, error) {
		return c.client.Send(ctx, message, observe)
	})
}

func (c *chatCommander) upload(ctx context.Context, path string) error {
	return c.turn(func(observe stream.Observer) (chat.Turn, error) {
		return c.client.Upload(ctx, path, observe)
	})
}

func (c *chatCommander) turn(do func(stream.Observer) (chat.Turn, error)) error {
	state := c.client.Settings().State()

	if !c.markdown {
		p := clientapp.NewStreamPrinter(c.out, state.AssistantName, state.ShowReasoning)
		_, err := do(p.Observe)
		p.Finish()
		return err
	}

	var turn chat.Turn
	err := cliui.Step(c.errOut, "Waiting for "+state.AssistantName, func() error {
		var err error
		turn, err = do(nil)
		return err
	})
	if turn.Assistant.Role == "" {
		return err
	}

	fmt.Fprintln(c.out)
	if state.ShowReasoning && turn.Assistant.Reasoning != "" {
		fmt.Fprintf(c.out, "%s\n", cliui.ReasoningStyle.Render(turn.Assistant.Reasoning))
	}
	rendered, rerr := cliui.RenderMarkdown(turn.Assistant.Content)
	if rerr != nil {
		c.client.Logger.Debug("rendering markdown", "error", rerr)
	}
	fmt.Fprint(c.out, rendered)
	fmt.Fprintln(c.out)

	return err
}

func (c *chatCommander) listSessions() {
	store := c.client.Store()
	current := store.CurrentID()

	fmt.Fprintln(c.out)
	for i, sess := range store.List() {
		mark := " "
		if sess.ID == current {
			mark = cliui.CurrentMark
		}
		fmt.Fprintf(c.out, "  %s %s %s %s\n",
			mark,
			cliui.DimStyle.Render(fmt.Sprintf("%d.", i+1)),
			cliui.NameStyle.Render(sess.Name),
			cliui.DimStyle.Render(fmt.Sprintf("%s (%d messages)", sess.ID, len(sess.Messages))),
		)
	}
	fmt.Fprintln(c.out)
}

func (c *chatCommander) printHistory() {
	state := c.client.Settings().State()
	names := clientapp.DisplayNames{User: state.UserName, Assistant: state.AssistantName}

	fmt.Fprintln(c.out)
	for _, m := range c.client.Store().Transcript() {
		clientapp.PrintMessage(c.out, m, names, state.ShowReasoning)
	}
}

func (c *chatCommander) notice(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, fmt.Sprintf(format, args...))
}
