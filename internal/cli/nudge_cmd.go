package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/companion"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/spf13/cobra"
)

func newNudgeCmd(app *App) *cobra.Command {
	var (
		mood    string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "nudge <task>",
		Short: "Break a task into mood-aware mini-steps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.Join(args, " ")
			var remote llm.Client
			if !offline {
				remote = app.Remote
			}
			steps, fromModel := nudgeSteps(cmd.Context(), remote, task, mood)

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatSteps(task, steps))
			if fromModel {
				fmt.Fprintln(out, formatter.Dim("\nsuggested by "+remote.Model()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mood, "mood", "neutral", "How you feel: stressed, sad, angry, happy, calm...")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the built-in steps only")

	return cmd
}

// nudgeSteps asks the model for steps and falls back to the built-in ones
// when there is no model or its answer has no numbered lines.
func nudgeSteps(ctx context.Context, remote llm.Client, task, mood string) ([]string, bool) {
	if remote != nil {
		stop := formatter.StartSpinner("Thinking...")
		resp, err := remote.Generate(ctx, llm.GenerateRequest{
			Task:       llm.TaskNudge,
			UserPrompt: companion.NudgePrompt(task, mood),
		})
		stop()
		if err == nil {
			if steps := stripNumbers(companion.ParseSteps(resp.Text)); len(steps) > 0 {
				return steps, true
			}
		}
	}
	return companion.AdaptTask(task, mood), false
}

func stripNumbers(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		s = strings.TrimSpace(strings.TrimLeft(s, "0123456789.):"))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
