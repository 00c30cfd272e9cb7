package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/companion"
	"github.com/spf13/cobra"
)

// errNoReply is returned by ask when the turn produced no assistant message.
var errNoReply = errors.New("no reply")

func newAskCmd(app *App) *cobra.Command {
	var (
		src    sourceFlags
		render bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.SessionOptions()
			opts.MockDelay = 0
			if err := src.apply(&opts); err != nil {
				return err
			}

			sess := app.NewSession(opts)
			defer sess.Close()

			ctx := cmd.Context()
			if err := sess.SendMessage(ctx, strings.Join(args, " ")); err != nil {
				return err
			}

			snap := sess.Snapshot()
			var md *formatter.Markdown
			if render {
				md = formatter.NewMarkdown(app.MarkdownStyle)
			}
			out := cmd.OutOrStdout()
			found := false
			for _, m := range snap.Messages {
				if m.IsUser {
					continue
				}
				fmt.Fprintln(out, formatter.FormatMessage(m, md, 80))
				found = true
			}
			if !found {
				return fmt.Errorf("%w: %s", errNoReply, snap.Status)
			}
			return nil
		},
	}

	src.bind(cmd.Flags())
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown in the reply")

	return cmd
}

func newClassifyCmd(app *App) *cobra.Command {
	var useModel bool

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Show the mood and request category a message maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			emotion, fromModel := companion.Classify(text), false
			if useModel && app.Remote != nil {
				stop := formatter.StartSpinner("Reading the mood...")
				emotion, fromModel = companion.DetectEmotion(cmd.Context(), app.Remote, text)
				stop()
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatClassification(emotion, companion.Route(text)))
			if fromModel {
				fmt.Fprintln(out, formatter.Dim("mood labelled by "+app.Remote.Model()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useModel, "model", false, "Ask the Ollama model to label the mood first")

	return cmd
}
