package cli

import (
	"errors"
	"fmt"

	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/session"
	"github.com/spf13/cobra"
)

// errUnreachable is returned by server test when the probe fails.
var errUnreachable = errors.New("server unreachable")

func newServerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the remote Ollama server",
	}
	cmd.AddCommand(newServerTestCmd(app))
	return cmd
}

func newServerTestCmd(app *App) *cobra.Command {
	var url, model string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check that the Ollama server answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Remote == nil {
				return fmt.Errorf("%w: remote server", session.ErrNoBackend)
			}
			sess := app.NewSession(app.SessionOptions())
			defer sess.Close()

			if url != "" || model != "" {
				if err := sess.ConfigureRemote(url, model); err != nil {
					return err
				}
			}

			ok := sess.TestConnection(cmd.Context())
			status := sess.Snapshot().Status
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleRed.Render(status))
				return errUnreachable
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleGreen.Render(status))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Server URL, e.g. http://192.168.1.20:11434")
	cmd.Flags().StringVar(&model, "model", "", "Model name to use on the server")

	return cmd
}
