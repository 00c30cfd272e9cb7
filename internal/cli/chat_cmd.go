package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/logging"
	"github.com/neurolens/neurolens/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newChatCmd(app *App) *cobra.Command {
	var (
		src   sourceFlags
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with your companion",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.SessionOptions()
			if err := src.apply(&opts); err != nil {
				return err
			}

			sess := app.NewSession(opts)
			defer sess.Close()
			ctx := logging.WithSessionID(cmd.Context(), sess.ID())
			log := logging.With(ctx, app.Log)
			log.Debug().Str("source", string(opts.InitialSource)).Msg("chat started")

			if app.interactive() && !plain {
				return runChatTUI(ctx, app, sess)
			}
			return runLineChat(ctx, sess, app.input(), cmd.OutOrStdout())
		},
	}

	src.bind(cmd.Flags())
	cmd.Flags().BoolVar(&plain, "plain", false, "Use line mode even on a terminal")

	return cmd
}

// sourceFlags override the configured source for one command.
type sourceFlags struct {
	mock   bool
	source string
}

func (f *sourceFlags) bind(fs *pflag.FlagSet) {
	fs.BoolVar(&f.mock, "mock", false, "Answer with the built-in templates")
	fs.StringVar(&f.source, "source", "", "Backend to use: local, remote or mock")
}

func (f sourceFlags) apply(opts *session.Options) error {
	if f.source != "" {
		src, ok := domain.ParseModelSource(f.source)
		if !ok {
			return fmt.Errorf("unknown source %q (use local, remote or mock)", f.source)
		}
		opts.InitialSource = src
	}
	if f.mock {
		opts.InitialSource = domain.SourceMock
	}
	return nil
}

func runChatTUI(ctx context.Context, app *App, sess chatSession) error {
	v := newChatView(ctx, sess, formatter.NewMarkdown(app.MarkdownStyle))
	_, err := tea.NewProgram(v, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// runLineChat reads one message per line and prints the replies each turn
// produced. Lines starting with "/" are chat commands.
func runLineChat(ctx context.Context, sess chatSession, in io.Reader, out io.Writer) error {
	_ = sess.Init(ctx)
	fmt.Fprintln(out, formatter.Dim(sess.Snapshot().Status))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if isSlash(line) {
			res, err := runSlash(ctx, sess, line)
			if err != nil {
				fmt.Fprintln(out, formatter.StyleRed.Render(err.Error()))
				continue
			}
			if res.notice != "" {
				fmt.Fprintln(out, res.notice)
			}
			if res.quit {
				return nil
			}
			continue
		}

		before := len(sess.Snapshot().Messages)
		if err := sess.SendMessage(ctx, line); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return nil
			}
			fmt.Fprintln(out, formatter.StyleRed.Render(err.Error()))
			continue
		}
		printReplies(out, sess.Snapshot(), before)
	}
	return scanner.Err()
}

// printReplies writes the assistant messages appended after index from.
// When a turn adds none the status is printed instead.
func printReplies(out io.Writer, snap session.Snapshot, from int) {
	printed := false
	for _, m := range snap.Messages[min(from, len(snap.Messages)):] {
		if m.IsUser {
			continue
		}
		fmt.Fprintln(out, formatter.FormatMessage(m, nil, 0))
		printed = true
	}
	if !printed {
		fmt.Fprintln(out, formatter.Dim(snap.Status))
	}
}
