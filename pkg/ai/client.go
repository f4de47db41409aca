package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL          = "https://chat.together.ai/api/chat-completion"
	DefaultModelID          = "0bbf06d8-22bd-47a9-89ad-75e8b2183389"
	DefaultCredentialHeader = "cookie"
	DefaultConnectTimeout   = 30 * time.Second
	DefaultReadTimeout      = 60 * time.Second
	MaxReadTimeout          = 120 * time.Second

	// MaxResponseBody bounds how much of a completion response is read.
	MaxResponseBody = 4 << 20

	maxErrorBody = 8 * 1024
)

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures a ChatClient. Zero values fall back to defaults.
type ClientConfig struct {
	BaseURL          string
	ModelID          string
	Credential       string
	CredentialHeader string
	ConnectTimeout   time.Duration
	ReadTimeout      time.Duration
	HTTPClient       HTTPDoer
	Logger           *slog.Logger
}

// ChatClient issues one chat-completion POST per request and turns every
// outcome into text or an *ai.Failure.
type ChatClient struct {
	baseURL          string
	modelID          string
	credential       string
	credentialHeader string
	readTimeout      time.Duration
	httpClient       HTTPDoer
	logger           *slog.Logger
}

var _ ai.Provider = (*ChatClient)(nil)

func NewChatClient(cfg ClientConfig) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.CredentialHeader == "" {
		cfg.CredentialHeader = DefaultCredentialHeader
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.ReadTimeout > MaxReadTimeout {
		cfg.ReadTimeout = MaxReadTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &ChatClient{
		baseURL:          cfg.BaseURL,
		modelID:          cfg.ModelID,
		credential:       strings.TrimSpace(cfg.Credential),
		credentialHeader: cfg.CredentialHeader,
		readTimeout:      cfg.ReadTimeout,
		httpClient:       cfg.HTTPClient,
		logger:           cfg.Logger,
	}
}

// NewHTTPClient bounds connection setup by connect and waiting for the
// response headers by read.
func NewHTTPClient(connect, read time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   connect,
			ResponseHeaderTimeout: read,
			MaxIdleConns:          4,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

func (c *ChatClient) ID() string {
	return "chat:" + c.modelID
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireOptions struct {
	Task string `json:"task"`
}

type wireRequest struct {
	ModelID   string        `json:"modelId"`
	Messages  []wireMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"maxTokens"`
	Options   wireOptions   `json:"options"`
}

type exchange struct {
	status int
	body   []byte
}

// Complete performs a single POST. There is no retry; callers decide how to
// recover from the returned *ai.Failure.
func (c *ChatClient) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := c.logger.With("request_id", req.ID, "operation", string(req.Operation), "model", c.modelID)

	text, status, err := c.do(ctx, req)
	if err != nil {
		log.Error("completion failed",
			"kind", ai.KindOf(err).String(),
			"status", status,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}

	log.Info("completion succeeded",
		"status", status,
		"duration", time.Since(start),
		"chars", len(text),
	)
	return &ai.CompletionResponse{Text: text, Model: c.modelID, Source: ai.SourceRemote}, nil
}

func (c *ChatClient) do(ctx context.Context, req ai.CompletionRequest) (string, int, error) {
	body, err := json.Marshal(c.buildBody(req))
	if err != nil {
		return "", 0, ai.NewNetworkError(fmt.Errorf("encode request: %w", err))
	}

	t := timeout.New[*exchange](timeout.Config{DefaultTimeout: c.readTimeout})
	ex, err := t.Execute(ctx, c.readTimeout, func(ctx context.Context) (*exchange, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return "", 0, ai.NewNetworkError(err)
	}

	if ex.status < 200 || ex.status >= 300 {
		return "", ex.status, ai.NewServerError(ex.status, truncate(ex.body))
	}
	if len(ex.body) > MaxResponseBody {
		return "", ex.status, ai.NewProtocolError(fmt.Errorf("%w: response body exceeds %d bytes", ai.ErrNoChoices, MaxResponseBody))
	}

	text, err := extractContent(ex.body)
	if err != nil {
		return "", ex.status, err
	}
	return text, ex.status, nil
}

func (c *ChatClient) buildBody(req ai.CompletionRequest) wireRequest {
	msgs := req.Messages()
	wire := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		wire = append(wire, wireMessage{Role: wireRole(m.Role), Content: m.Content})
	}
	return wireRequest{
		ModelID:   c.modelID,
		Messages:  wire,
		Stream:    false,
		MaxTokens: req.MaxTokens,
		Options:   wireOptions{Task: req.Operation.Task()},
	}
}

func wireRole(r ai.Role) string {
	switch r {
	case ai.RoleSystem:
		return openai.ChatMessageRoleSystem
	case ai.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func (c *ChatClient) post(ctx context.Context, body []byte) (*exchange, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	httpReq.Header.Set("Accept", "*/*")
	if c.credential != "" {
		httpReq.Header.Set(c.credentialHeader, c.credential)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &exchange{status: resp.StatusCode, body: data}, nil
}

// extractContent pulls choices[0].message.content out of a 2xx body.
func extractContent(body []byte) (string, error) {
	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", ai.NewProtocolError(fmt.Errorf("%w: %v", ai.ErrNoChoices, err))
	}
	if len(resp.Choices) == 0 {
		return "", ai.NewProtocolError(nil)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ai.NewProtocolError(nil)
	}
	return content, nil
}

// ChatComplete runs Complete on its own goroutine and calls onResult exactly once.
func (c *ChatClient) ChatComplete(ctx context.Context, req ai.CompletionRequest, onResult func(ai.Result)) {
	CompleteAsync(ctx, c, req, onResult)
}

// CompleteAsync is the callback form of Provider.Complete.
func CompleteAsync(ctx context.Context, p ai.Provider, req ai.CompletionRequest, onResult func(ai.Result)) {
	go func() {
		resp, err := p.Complete(ctx, req)
		if err != nil {
			onResult(ai.Failed(req.Operation, err))
			return
		}
		onResult(ai.Success(req.Operation, resp.Text, resp.Source))
	}()
}

// truncate keeps at most maxErrorBody bytes of an error body without
// splitting a UTF-8 sequence.
func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		cut := maxErrorBody
		for i := 0; i < utf8.UTFMax && cut > 0 && !utf8.RuneStart(b[cut]); i++ {
			cut--
		}
		b = b[:cut]
	}
	return strings.TrimSpace(string(b))
}
