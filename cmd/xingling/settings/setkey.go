package settingscmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zhyuuka/xingling-chat/pkg/clientapp"
	"github.com/zhyuuka/xingling-chat/pkg/cliui"
)

const setKeyLongDesc string = `Store the API key for the model service or the search provider.

The key is read from stdin: piped input uses the first line, a terminal
prompts with hidden input.

Examples:
  xingling settings set-key api
  echo $TAVILY_KEY | xingling settings set-key search`

// secretTargets maps set-key arguments to setting names.
var secretTargets = map[string]string{
	"api":    "api.key",
	"search": "search.api_key",
}

func newSetKeyCmd() *cobra.Command {
	return withClient(&cobra.Command{
		Use:       "set-key <api|search>",
		Short:     "Store an API key read from stdin",
		Long:      setKeyLongDesc,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"api", "search"},
	}, func(cmd *cobra.Command, client *clientapp.Client, args []string) error {
		key, ok := secretTargets[args[0]]
		if !ok {
			return fmt.Errorf("unknown key target %q (expected api or search)", args[0])
		}

		secret, err := readSecret(cmd, args[0])
		if err != nil {
			return err
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			return errors.New("API key cannot be empty")
		}

		if err := client.Settings().Set(cmd.Context(), key, secret); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Stored %s %s\n\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(key),
			cliui.DimStyle.Render("("+display(key, secret)+")"),
		)
		return nil
	})
}

// readSecret reads a secret from the command's stdin. A terminal gets a
// hidden prompt, anything else is read up to the first newline.
func readSecret(cmd *cobra.Command, target string) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "  Enter %s key: ", target)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
