package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/session"
)

// chatSession is the part of *session.Session the chat surfaces drive.
type chatSession interface {
	SendMessage(ctx context.Context, text string) error
	Subscribe() (<-chan session.Snapshot, func())
	Snapshot() session.Snapshot
	Init(ctx context.Context) error
	ToggleMockMode() bool
	SelectSource(src domain.ModelSource) error
	ConfigureRemote(url, model string) error
	TestConnection(ctx context.Context) bool
	RefreshModels(ctx context.Context) error
	LoadModel(ctx context.Context, id string) error
	DownloadModel(ctx context.Context, id string) error
}

var _ chatSession = (*session.Session)(nil)

// slashResult is the outcome of a chat command line.
type slashResult struct {
	notice string
	quit   bool
}

const slashHelp = `/mock                 toggle mock mode
/load <id>            load a catalog model, a .gguf path or an Ollama model
/download <id>        download a catalog model or pull an Ollama model
/models               list models
/remote <url> [model] point at an Ollama server
/test                 test the remote connection
/source <name>        switch to local, remote or mock
/quit                 leave the chat`

func isSlash(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "/")
}

// runSlash executes one chat command. Session errors become the notice so
// the chat keeps running; only an unknown command is returned as an error.
func runSlash(ctx context.Context, sess chatSession, line string) (slashResult, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return slashResult{}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	arg := func() (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("%s needs an argument", name)
		}
		return args[0], nil
	}

	switch name {
	case "/quit", "/exit", "/q":
		return slashResult{quit: true}, nil

	case "/help", "/?":
		return slashResult{notice: slashHelp}, nil

	case "/mock":
		if sess.ToggleMockMode() {
			return slashResult{notice: "Mock mode on"}, nil
		}
		return slashResult{notice: "Mock mode off"}, nil

	case "/models":
		if err := sess.RefreshModels(ctx); err != nil {
			return slashResult{notice: sess.Snapshot().Status}, nil
		}
		snap := sess.Snapshot()
		return slashResult{notice: strings.TrimRight(formatter.FormatModels(snap.Models, snap.ModelID), "\n")}, nil

	case "/load":
		id, err := arg()
		if err != nil {
			return slashResult{notice: err.Error()}, nil
		}
		_ = sess.LoadModel(ctx, id)
		return slashResult{notice: sess.Snapshot().Status}, nil

	case "/download", "/pull":
		id, err := arg()
		if err != nil {
			return slashResult{notice: err.Error()}, nil
		}
		_ = sess.DownloadModel(ctx, id)
		return slashResult{notice: sess.Snapshot().Status}, nil

	case "/remote":
		url, err := arg()
		if err != nil {
			return slashResult{notice: err.Error()}, nil
		}
		model := ""
		if len(args) > 1 {
			model = args[1]
		}
		if err := sess.ConfigureRemote(url, model); err != nil {
			return slashResult{notice: "Remote server not available: " + err.Error()}, nil
		}
		return slashResult{notice: sess.Snapshot().Status}, nil

	case "/test":
		sess.TestConnection(ctx)
		return slashResult{notice: sess.Snapshot().Status}, nil

	case "/source":
		v, err := arg()
		if err != nil {
			return slashResult{notice: err.Error()}, nil
		}
		src, ok := domain.ParseModelSource(v)
		if !ok {
			return slashResult{notice: fmt.Sprintf("unknown source %q", v)}, nil
		}
		if err := sess.SelectSource(src); err != nil {
			return slashResult{notice: err.Error()}, nil
		}
		return slashResult{notice: sess.Snapshot().Status}, nil
	}

	return slashResult{}, fmt.Errorf("unknown command %s, try /help", name)
}

// sourceLabel names the active backend for the status line.
func sourceLabel(snap session.Snapshot) string {
	switch snap.Source {
	case domain.SourceMock:
		return "mock"
	case domain.SourceLocal:
		if snap.ModelID == "" {
			return "local"
		}
		return "local: " + snap.ModelID
	case domain.SourceRemote:
		if snap.RemoteModel == "" {
			return "ollama"
		}
		return "ollama: " + snap.RemoteModel
	}
	return "no model"
}
