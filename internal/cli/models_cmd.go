package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/config"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/local"
	"github.com/neurolens/neurolens/internal/session"
	"github.com/spf13/cobra"
)

func newModelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List, download and load models",
	}

	cmd.AddCommand(
		newModelsListCmd(app),
		newModelsLoadCmd(app),
		newModelsDownloadCmd(app, "download", "Download a catalog model into the models directory"),
		newModelsDownloadCmd(app, "pull", "Pull a model onto the Ollama server"),
	)

	return cmd
}

func newModelsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog and server models",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.NewSession(app.SessionOptions())
			defer sess.Close()

			err := sess.RefreshModels(cmd.Context())
			snap := sess.Snapshot()
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatModels(snap.Models, activeModel(app)))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.StyleYellow.Render(snap.Status))
			}
			return nil
		},
	}
}

// activeModel is the model id the configured source would use.
func activeModel(app *App) string {
	switch app.Config.Source() {
	case domain.SourceRemote:
		return app.Config.LLM.Model
	case domain.SourceLocal:
		return app.Config.Local.DefaultModel
	case domain.SourceMock:
		return domain.MockModelID
	}
	return ""
}

func newModelsLoadCmd(app *App) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Check that a model loads, optionally making it the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			sess := app.NewSession(app.SessionOptions())
			defer sess.Close()

			err := sess.LoadModel(cmd.Context(), id)
			snap := sess.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), snap.Status)
			if err != nil {
				return err
			}
			if !save {
				return nil
			}

			cfg := app.Config
			applyLoaded(&cfg, snap)
			if err := config.Save(app.ConfigPath, cfg); err != nil {
				return err
			}
			app.Config = cfg
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Saved to "+app.ConfigPath))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write the model and source to the config file")

	return cmd
}

// applyLoaded records the session's active model and source in cfg.
func applyLoaded(cfg *config.Config, snap session.Snapshot) {
	switch snap.Source {
	case domain.SourceRemote:
		cfg.Session.Source = "remote"
		cfg.LLM.Model = snap.ModelID
	case domain.SourceLocal:
		cfg.Session.Source = "local"
		cfg.Local.DefaultModel = snap.ModelID
	case domain.SourceMock:
		cfg.Session.Source = "mock"
	}
}

func newModelsDownloadCmd(app *App, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			_, inCatalog := local.Lookup(id)
			switch {
			case use == "pull" && inCatalog:
				return fmt.Errorf("%s is a catalog model, use models download", id)
			case use == "download" && !inCatalog:
				return fmt.Errorf("%w: %s is not in the catalog, use models pull", local.ErrModelNotFound, id)
			}

			sess := app.NewSession(app.SessionOptions())
			defer sess.Close()

			stop := watchProgress(sess, id, cmd.ErrOrStderr())
			err := sess.DownloadModel(cmd.Context(), id)
			stop()

			fmt.Fprintln(cmd.OutOrStdout(), sess.Snapshot().Status)
			return err
		},
	}
}

// watchProgress redraws a progress line on w for every published
// download fraction. The returned func stops watching and waits.
func watchProgress(sess chatSession, id string, w io.Writer) func() {
	ch, cancel := sess.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drew := false
		for snap := range ch {
			if snap.DownloadProgress == nil {
				continue
			}
			fmt.Fprintf(w, "\r\033[K%s", formatter.RenderDownload(id, *snap.DownloadProgress))
			drew = true
		}
		if drew {
			fmt.Fprintln(w)
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
