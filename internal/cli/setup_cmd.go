package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/config"
	"github.com/spf13/cobra"
)

// errNotInteractive is returned by setup when stdin is not a terminal.
var errNotInteractive = errors.New("setup needs an interactive terminal")

// setupValues are the fields the setup form edits.
type setupValues struct {
	Source        string
	RemoteURL     string
	RemoteModel   string
	LocalEndpoint string
	ModelsDir     string
	Journal       bool
	LogLevel      string
}

func setupValuesFrom(cfg config.Config) setupValues {
	src := cfg.Session.Source
	if src == "" {
		src = "none"
	}
	return setupValues{
		Source:        src,
		RemoteURL:     cfg.LLM.Endpoint,
		RemoteModel:   cfg.LLM.Model,
		LocalEndpoint: cfg.Local.Endpoint,
		ModelsDir:     cfg.Local.ModelsDir,
		Journal:       cfg.Journal.Enabled,
		LogLevel:      cfg.Log.Level,
	}
}

// apply copies the edited values onto a copy of cfg.
func (v setupValues) apply(cfg config.Config) config.Config {
	cfg.Session.Source = v.Source
	if v.Source == "none" {
		cfg.Session.Source = ""
	}
	cfg.LLM.Endpoint = strings.TrimRight(strings.TrimSpace(v.RemoteURL), "/")
	cfg.LLM.Model = strings.TrimSpace(v.RemoteModel)
	cfg.Local.Endpoint = strings.TrimRight(strings.TrimSpace(v.LocalEndpoint), "/")
	cfg.Local.ModelsDir = strings.TrimSpace(v.ModelsDir)
	cfg.Journal.Enabled = v.Journal
	cfg.Log.Level = v.LogLevel
	return cfg
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter a URL like http://localhost:11434")
	}
	return nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// neurolensHuhTheme styles forms with the formatter palette.
func neurolensHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func setupForm(v *setupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default source").
				Description("Which backend answers when a chat starts").
				Options(
					huh.NewOption("Ask me each time", "none"),
					huh.NewOption("Local model", "local"),
					huh.NewOption("Ollama server", "remote"),
					huh.NewOption("Mock mode (built-in templates)", "mock"),
				).
				Value(&v.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Ollama server URL").
				Placeholder("http://localhost:11434").
				Value(&v.RemoteURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Ollama model").
				Placeholder("llama3.2").
				Value(&v.RemoteModel).
				Validate(validateRequired),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Local inference server URL").
				Description("llama-server or another OpenAI-compatible server").
				Placeholder("http://localhost:8080").
				Value(&v.LocalEndpoint).
				Validate(validateURL),
			huh.NewInput().
				Title("Models directory").
				Value(&v.ModelsDir).
				Validate(validateRequired),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Keep a mood journal?").
				Description("Each turn's mood and advice are stored locally in SQLite").
				Value(&v.Journal),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&v.LogLevel),
		),
	).WithTheme(neurolensHuhTheme()).WithShowHelp(false)
}

func newSetupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create or edit the config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errNotInteractive
			}
			values := setupValuesFrom(app.Config)
			if err := setupForm(&values).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Setup cancelled, nothing saved."))
					return nil
				}
				return err
			}

			cfg := values.apply(app.Config)
			if err := config.Save(app.ConfigPath, cfg); err != nil {
				return err
			}
			app.Config = cfg
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleGreen.Render("Saved "+app.ConfigPath))
			return nil
		},
	}
}
