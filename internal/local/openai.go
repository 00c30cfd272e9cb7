package local

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path"
	"strings"
	"sync"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"
)

// OpenAIEngine implements Engine against an OpenAI-compatible server such
// as llama.cpp's llama-server.
type OpenAIEngine struct {
	client openai.Client
	log    zerolog.Logger

	mu    sync.RWMutex
	model string
}

var _ Engine = (*OpenAIEngine)(nil)

// NewOpenAIEngine creates an engine for the server at cfg.Endpoint.
func NewOpenAIEngine(cfg Config, log zerolog.Logger) *OpenAIEngine {
	key := cfg.APIKey
	if key == "" {
		key = "local"
	}
	client := openai.NewClient(
		option.WithBaseURL(baseURL(cfg.Endpoint)),
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	)
	return &OpenAIEngine{
		client: client,
		log:    log.With().Str("component", "local_engine").Logger(),
	}
}

// baseURL normalizes an endpoint to the /v1/ prefix the SDK expects.
func baseURL(endpoint string) string {
	u := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasSuffix(u, "/v1") {
		u += "/v1"
	}
	return u + "/"
}

func (e *OpenAIEngine) ListModels(ctx context.Context) ([]string, error) {
	page, err := e.client.Models.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (e *OpenAIEngine) LoadModel(ctx context.Context, ref string) error {
	ids, err := e.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if matchesModel(id, ref) {
			e.mu.Lock()
			e.model = id
			e.mu.Unlock()
			e.log.Info().Str("model", id).Str("ref", ref).Msg("model bound")
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModelNotFound, ref)
}

func (e *OpenAIEngine) Loaded() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

func (e *OpenAIEngine) GenerateStream(ctx context.Context, req GenerateRequest, fn func(token string) error) error {
	model := e.Loaded()
	if model == "" {
		return ErrNotLoaded
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	stream := e.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if tok := chunk.Choices[0].Delta.Content; tok != "" {
			if err := fn(tok); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return mapError(err)
	}
	return nil
}

// matchesModel reports whether a served id answers to ref. Servers report
// ids as paths, file names or aliases, so base names with and without the
// .gguf suffix are compared too.
func matchesModel(id, ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if id == ref {
		return true
	}
	base := path.Base(strings.ReplaceAll(id, "\\", "/"))
	refBase := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if strings.EqualFold(base, refBase) {
		return true
	}
	return strings.EqualFold(trimExt(base), trimExt(refBase))
}

func trimExt(s string) string {
	if strings.HasSuffix(strings.ToLower(s), ".gguf") {
		return s[:len(s)-len(".gguf")]
	}
	return s
}

func mapError(err error) error {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return err
}
