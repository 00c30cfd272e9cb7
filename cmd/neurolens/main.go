package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/neurolens/neurolens/internal/cli"
	"github.com/neurolens/neurolens/internal/config"
	"github.com/neurolens/neurolens/internal/db"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
	"github.com/neurolens/neurolens/internal/logging"
	"github.com/neurolens/neurolens/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(log)
	}

	app := &cli.App{
		Config:        cfg,
		ConfigPath:    cfgPath,
		Remote:        llm.NewOllamaClient(cfg.LLM, observer, log),
		Engine:        local.NewOpenAIEngine(cfg.Local, log),
		Downloader:    local.NewDownloader(cfg.Local.ModelsDir, cfg.Local.MinBytes, log),
		Log:           log,
		MarkdownStyle: "dark",
	}

	// The journal is optional; a broken database only disables it.
	if cfg.Journal.Enabled {
		database, err := db.OpenDB(cfg.Journal.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Journal.Path).Msg("journal disabled")
		} else {
			defer database.Close()
			app.Journal = repository.NewSQLiteJournalRepo(database)
		}
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
