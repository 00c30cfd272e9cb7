package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/rs/zerolog"
)

// GenerateRequest holds the parameters for a generation call.
type GenerateRequest struct {
	Task         TaskType
	Model        string // empty uses the configured model
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
}

// GenerateResponse holds the result of a non-streaming generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// ChatTurn is one prior message sent as chat context.
type ChatTurn struct {
	Text   string
	IsUser bool
}

// ChatRequest holds the parameters for a streamed chat call.
type ChatRequest struct {
	Model    string
	System   string
	Messages []ChatTurn
}

// Model describes a model installed on the server.
type Model struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// TokenFunc receives each streamed token in order. Returning an error
// aborts the stream with that error.
type TokenFunc func(token string) error

// ProgressFunc receives pull progress updates.
type ProgressFunc func(domain.PullProgress)

// Client provides access to an Ollama server.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	GenerateStream(ctx context.Context, req GenerateRequest, fn TokenFunc) error
	ChatStream(ctx context.Context, req ChatRequest, fn TokenFunc) error
	Pull(ctx context.Context, name string, fn ProgressFunc) error
	ListModels(ctx context.Context) ([]Model, error)

	// Available checks whether the Ollama server is reachable.
	Available(ctx context.Context) bool

	// Configure points the client at another server and default model.
	Configure(endpoint, model string)
	Endpoint() string
	Model() string
}

// ollamaClient implements Client using the Ollama HTTP API.
type ollamaClient struct {
	mu       sync.RWMutex
	cfg      Config
	http     *http.Client
	observer Observer
	log      zerolog.Logger
}

// NewOllamaClient creates a Client that talks to an Ollama instance.
func NewOllamaClient(cfg Config, observer Observer, log zerolog.Logger) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Endpoint = trimEndpoint(cfg.Endpoint)
	return &ollamaClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
		log:      log.With().Str("component", "ollama").Logger(),
	}
}

// ollamaRequest is the JSON body sent to POST /api/generate.
type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaResponse is one object returned by POST /api/generate, either the
// whole body or one line of a stream.
type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
	Error   string            `json:"error,omitempty"`
}

type ollamaPullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type ollamaPullResponse struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error,omitempty"`
}

type ollamaTagsResponse struct {
	Models []Model `json:"models"`
}

func (c *ollamaClient) Configure(endpoint, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if endpoint != "" {
		c.cfg.Endpoint = trimEndpoint(endpoint)
	}
	if model != "" {
		c.cfg.Model = model
	}
	c.log.Info().Str("endpoint", c.cfg.Endpoint).Str("model", c.cfg.Model).Msg("configured")
}

func (c *ollamaClient) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Endpoint
}

func (c *ollamaClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Model
}

func (c *ollamaClient) config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *ollamaClient) buildRequest(cfg Config, req GenerateRequest, stream bool) (ollamaRequest, error) {
	taskCfg := cfg.Tasks[req.Task]
	temp := taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	model := req.Model
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		return ollamaRequest{}, ErrNoModel
	}
	return ollamaRequest{
		Model:  model,
		System: req.SystemPrompt,
		Prompt: req.UserPrompt,
		Stream: stream,
		Options: ollamaOptions{
			Temperature: temp,
			NumPredict:  maxTok,
		},
	}, nil
}

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	cfg := c.config()

	body, err := c.buildRequest(cfg, req, false)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TaskTimeout(req.Task)) * time.Millisecond

	var lastErr error
	attempts := 1 + cfg.MaxRetries

	for i := 0; i < attempts; i++ {
		resp, err := c.generateAttempt(ctx, cfg.Endpoint, body, timeout)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observe(req.Task, "generate", body.Model, start, 0, nil)
			return &GenerateResponse{
				Text:      resp.Response,
				Model:     resp.Model,
				LatencyMs: latency,
			}, nil
		}
		lastErr = err

		// Don't retry once the caller has given up
		if ctx.Err() != nil {
			break
		}
	}

	err = classifyError(ctx, lastErr)
	if !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrOllamaUnavailable) && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}
	c.observe(req.Task, "generate", body.Model, start, 0, err)
	return nil, err
}

// generateAttempt runs one non-streaming request under its own deadline.
func (c *ollamaClient) generateAttempt(ctx context.Context, endpoint string, body ollamaRequest, timeout time.Duration) (*ollamaResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := c.doGenerate(ctx, endpoint, body)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	return resp, nil
}

func (c *ollamaClient) doGenerate(ctx context.Context, endpoint string, body ollamaRequest) (*ollamaResponse, error) {
	httpResp, err := c.post(ctx, endpoint+"/api/generate", body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp ollamaResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrServer, resp.Error)
	}
	return &resp, nil
}

func (c *ollamaClient) GenerateStream(ctx context.Context, req GenerateRequest, fn TokenFunc) error {
	start := time.Now()
	cfg := c.config()

	body, err := c.buildRequest(cfg, req, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TaskTimeout(req.Task))*time.Millisecond)
	defer cancel()

	c.log.Debug().Str("model", body.Model).Msg("generating")
	tokens := 0
	err = c.stream(ctx, cfg.Endpoint+"/api/generate", body, func(line []byte) (bool, error) {
		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed generate line")
			return false, nil
		}
		if chunk.Error != "" {
			return false, fmt.Errorf("%w: %s", ErrServer, chunk.Error)
		}
		if chunk.Response != "" {
			tokens++
			if err := fn(chunk.Response); err != nil {
				return false, err
			}
		}
		return chunk.Done, nil
	})
	err = classifyError(ctx, err)
	c.observe(req.Task, "generate_stream", body.Model, start, tokens, err)
	return err
}

func (c *ollamaClient) ChatStream(ctx context.Context, req ChatRequest, fn TokenFunc) error {
	start := time.Now()
	cfg := c.config()

	model := req.Model
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		return ErrNoModel
	}
	body := ollamaChatRequest{Model: model, Stream: true}
	if req.System != "" {
		body.Messages = append(body.Messages, ollamaChatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		role := "assistant"
		if m.IsUser {
			role = "user"
		}
		body.Messages = append(body.Messages, ollamaChatMessage{Role: role, Content: m.Text})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TaskTimeout(TaskChat))*time.Millisecond)
	defer cancel()

	tokens := 0
	err := c.stream(ctx, cfg.Endpoint+"/api/chat", body, func(line []byte) (bool, error) {
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed chat line")
			return false, nil
		}
		if chunk.Error != "" {
			return false, fmt.Errorf("%w: %s", ErrServer, chunk.Error)
		}
		if chunk.Message.Content != "" {
			tokens++
			if err := fn(chunk.Message.Content); err != nil {
				return false, err
			}
		}
		return chunk.Done, nil
	})
	err = classifyError(ctx, err)
	c.observe(TaskChat, "chat_stream", model, start, tokens, err)
	return err
}

func (c *ollamaClient) Pull(ctx context.Context, name string, fn ProgressFunc) error {
	start := time.Now()
	cfg := c.config()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TaskTimeout(TaskPull))*time.Millisecond)
	defer cancel()

	err := c.stream(ctx, cfg.Endpoint+"/api/pull", ollamaPullRequest{Name: name, Stream: true}, func(line []byte) (bool, error) {
		var p ollamaPullResponse
		if err := json.Unmarshal(line, &p); err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed pull line")
			return false, nil
		}
		if p.Error != "" {
			return false, fmt.Errorf("%w: %s", ErrServer, p.Error)
		}
		progress := 0.0
		if p.Total > 0 {
			progress = float64(p.Completed) / float64(p.Total)
		}
		fn(domain.PullProgress{Model: name, Progress: progress, Status: p.Status})
		if strings.Contains(strings.ToLower(p.Status), "success") {
			fn(domain.PullProgress{Model: name, Progress: 1, Status: "Complete", Complete: true})
			return true, nil
		}
		return false, nil
	})
	err = classifyError(ctx, err)
	c.observe(TaskPull, "pull", name, start, 0, err)
	return err
}

func (c *ollamaClient) ListModels(ctx context.Context) ([]Model, error) {
	start := time.Now()
	cfg := c.config()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TaskTimeout(TaskProbe))*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		err = classifyError(ctx, err)
		c.observe(TaskProbe, "tags", "", start, 0, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = statusError(resp)
		c.observe(TaskProbe, "tags", "", start, 0, err)
		return nil, err
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	c.observe(TaskProbe, "tags", "", start, 0, nil)
	if len(tags.Models) == 0 {
		c.log.Warn().Msg("server has no models, run 'ollama pull <model>' first")
	}
	return tags.Models, nil
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	cfg := c.config()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TaskTimeout(TaskProbe))*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("endpoint", cfg.Endpoint).Msg("server unreachable")
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *ollamaClient) post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		return nil, statusError(httpResp)
	}
	return httpResp, nil
}

// stream posts body and feeds each NDJSON line to handle until it
// reports done or the body ends.
func (c *ollamaClient) stream(ctx context.Context, url string, body any, handle func(line []byte) (bool, error)) error {
	resp, err := c.post(ctx, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return readLines(resp.Body, handle)
}

func (c *ollamaClient) observe(task TaskType, op, model string, start time.Time, tokens int, err error) {
	c.observer.OnCallComplete(LLMCallEvent{
		Task:      task,
		Op:        op,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
		Tokens:    tokens,
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

// classifyError maps transport failures onto the package sentinels.
func classifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	if isConnectionError(err) {
		return ErrOllamaUnavailable
	}
	return err
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrOllamaUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrServer):
		return "SERVER"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

func trimEndpoint(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
