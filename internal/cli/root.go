package cli

import (
	"io"
	"os"
	"time"

	"github.com/neurolens/neurolens/internal/config"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
	"github.com/neurolens/neurolens/internal/repository"
	"github.com/neurolens/neurolens/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// App holds the collaborators CLI commands use. Remote, Engine, Downloader
// and Journal may be nil when the matching backend is not configured.
type App struct {
	Config     config.Config
	ConfigPath string

	Remote     llm.Client
	Engine     local.Engine
	Downloader session.Downloader
	Journal    repository.JournalRepo
	Log        zerolog.Logger

	// MarkdownStyle is the glamour standard style for detailed replies.
	MarkdownStyle string

	// IsInteractive reports whether stdin is a terminal. Nil means no.
	IsInteractive func() bool
	// In feeds line-mode chat. Nil reads os.Stdin.
	In io.Reader
	// Now is the clock used for journal windows. Nil uses time.Now.
	Now func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) input() io.Reader {
	if a.In != nil {
		return a.In
	}
	return os.Stdin
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// SessionOptions maps the session config section onto session.Options.
func (a *App) SessionOptions() session.Options {
	opts := session.DefaultOptions()
	sc := a.Config.Session
	if sc.ThrottleMs >= 0 {
		opts.Throttle = time.Duration(sc.ThrottleMs) * time.Millisecond
	}
	if sc.MockDelayMs >= 0 {
		opts.MockDelay = time.Duration(sc.MockDelayMs) * time.Millisecond
	}
	if sc.TimeoutMs > 0 {
		opts.GenerateTimeout = time.Duration(sc.TimeoutMs) * time.Millisecond
	}
	if sc.SystemPrompt != "" {
		opts.SystemPrompt = sc.SystemPrompt
	}
	if a.Config.Local.MaxTokens > 0 {
		opts.MaxTokens = a.Config.Local.MaxTokens
	}
	opts.HistoryTurns = sc.HistoryTurns
	opts.InitialSource = a.Config.Source()
	return opts
}

// NewSession builds a session over the configured backends.
func (a *App) NewSession(opts session.Options) *session.Session {
	deps := session.Deps{
		Remote:     a.Remote,
		Engine:     a.Engine,
		Downloader: a.Downloader,
		Log:        a.Log,
	}
	if a.Engine != nil {
		deps.Loader = local.NewLoader(a.Engine, a.Config.Local.MinBytes, a.Log)
	}
	if a.Journal != nil {
		deps.Journal = a.Journal
	}
	return session.New(deps, opts)
}

// NewRootCmd creates the top-level "neurolens" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "neurolens",
		Short:         "A terminal companion for mood, focus and calm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newChatCmd(app),
		newAskCmd(app),
		newClassifyCmd(app),
		newModelsCmd(app),
		newServerCmd(app),
		newJournalCmd(app),
		newMoodCmd(app),
		newNudgeCmd(app),
		newSetupCmd(app),
	)

	return root
}
