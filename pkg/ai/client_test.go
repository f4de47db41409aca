package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	infraAI "github.com/felixgeelhaar/notewise/pkg/ai"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, server *httptest.Server, credential string) *infraAI.ChatClient {
	t.Helper()
	return infraAI.NewChatClient(infraAI.ClientConfig{
		BaseURL:    server.URL,
		Credential: credential,
		HTTPClient: server.Client(),
		Logger:     quietLogger(),
	})
}

func summarizeRequest(t *testing.T) ai.CompletionRequest {
	t.Helper()
	req, err := ai.NewRequest(ai.OpSummarize, "The meeting moved to Friday.", "", 256)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func writeContent(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id": "cmpl-1",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestChatClient_Complete_Success(t *testing.T) {
	var body map[string]interface{}
	var headers http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeContent(w, "Hello")
	}))
	defer server.Close()

	c := newTestClient(t, server, "session=abc")
	req, err := ai.NewRequest(ai.OpGenerate, "existing note", "write a greeting", 1024)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	resp, err := c.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "Hello" {
		t.Errorf("expected Hello, got %q", resp.Text)
	}
	if resp.Source != ai.SourceRemote {
		t.Errorf("expected remote source, got %s", resp.Source)
	}

	if got := headers.Get("Content-Type"); got != "text/plain;charset=UTF-8" {
		t.Errorf("content-type = %q", got)
	}
	if got := headers.Get("Accept"); got != "*/*" {
		t.Errorf("accept = %q", got)
	}
	if got := headers.Get("Cookie"); got != "session=abc" {
		t.Errorf("credential header = %q", got)
	}

	if body["modelId"] != infraAI.DefaultModelID {
		t.Errorf("modelId = %v", body["modelId"])
	}
	if body["stream"] != false {
		t.Errorf("stream = %v", body["stream"])
	}
	if body["maxTokens"] != float64(1024) {
		t.Errorf("maxTokens = %v", body["maxTokens"])
	}
	opts, _ := body["options"].(map[string]interface{})
	if opts["task"] != "generate-title" {
		t.Errorf("options.task = %v", opts["task"])
	}

	messages := body["messages"].([]interface{})
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	wantRoles := []string{"system", "assistant", "user"}
	for i, role := range wantRoles {
		msg := messages[i].(map[string]interface{})
		if msg["role"] != role {
			t.Errorf("message %d role = %v, want %s", i, msg["role"], role)
		}
	}
	if last := messages[2].(map[string]interface{}); last["content"] != "write a greeting" {
		t.Errorf("user content = %v", last["content"])
	}
}

func TestChatClient_Complete_OmitsBlankAssistantAndCredential(t *testing.T) {
	var body struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
		Options struct {
			Task string `json:"task"`
		} `json:"options"`
	}
	var sawCookie bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawCookie = r.Header["Cookie"]
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeContent(w, "ok")
	}))
	defer server.Close()

	c := newTestClient(t, server, "   ")
	if _, err := c.Complete(context.Background(), summarizeRequest(t)); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if sawCookie {
		t.Error("blank credential must not be sent")
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", body.Messages)
	}
	if body.Options.Task != "summarize" {
		t.Errorf("task = %q", body.Options.Task)
	}
}

func TestChatClient_Complete_CustomCredentialHeader(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeContent(w, "ok")
	}))
	defer server.Close()

	c := infraAI.NewChatClient(infraAI.ClientConfig{
		BaseURL:          server.URL,
		Credential:       "Bearer token",
		CredentialHeader: "Authorization",
		HTTPClient:       server.Client(),
		Logger:           quietLogger(),
	})
	if _, err := c.Complete(context.Background(), summarizeRequest(t)); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if auth != "Bearer token" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestChatClient_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "overloaded")
	}))
	defer server.Close()

	_, err := newTestClient(t, server, "").Complete(context.Background(), summarizeRequest(t))
	if !ai.IsKind(err, ai.KindServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	var f *ai.Failure
	if !errors.As(err, &f) || f.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 on failure, got %+v", f)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("expected body excerpt in error, got %v", err)
	}
}

func TestChatClient_Complete_ProtocolErrors(t *testing.T) {
	bodies := map[string]string{
		"no choices":    `{"choices":[]}`,
		"missing shape": `{"result":"Hello"}`,
		"empty content": `{"choices":[{"message":{"role":"assistant","content":""}}]}`,
		"not json":      `<html>gateway</html>`,
	}

	for name, payload := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, payload)
			}))
			defer server.Close()

			_, err := newTestClient(t, server, "").Complete(context.Background(), summarizeRequest(t))
			if !ai.IsKind(err, ai.KindProtocol) {
				t.Fatalf("expected protocol error, got %v", err)
			}
			if !errors.Is(err, ai.ErrNoChoices) {
				t.Errorf("expected ErrNoChoices in chain, got %v", err)
			}
		})
	}
}

func TestChatClient_Complete_OversizedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, strings.Repeat("a", infraAI.MaxResponseBody))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, "").Complete(context.Background(), summarizeRequest(t))
	if !ai.IsKind(err, ai.KindProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	var f *ai.Failure
	if !errors.As(err, &f) || f.Err == nil || !strings.Contains(f.Err.Error(), "exceeds") {
		t.Errorf("expected size error as cause, got %v", err)
	}
}

func TestChatClient_Complete_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := infraAI.NewChatClient(infraAI.ClientConfig{
		BaseURL:        url,
		ConnectTimeout: time.Second,
		Logger:         quietLogger(),
	})
	_, err := c.Complete(context.Background(), summarizeRequest(t))
	if !ai.IsKind(err, ai.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestChatClient_Complete_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, server, "").Complete(ctx, summarizeRequest(t))
	if !ai.IsKind(err, ai.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestChatClient_Complete_RejectsInvalidRequest(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	_, err := newTestClient(t, server, "").Complete(context.Background(), ai.CompletionRequest{
		Operation:    ai.OpGenerate,
		SystemPrompt: "sys",
		MaxTokens:    10,
	})
	if !ai.IsKind(err, ai.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no network call, got %d", calls)
	}
}

func TestChatClient_ChatComplete_DeliversOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, "Hello")
	}))
	defer server.Close()

	results := make(chan ai.Result, 2)
	newTestClient(t, server, "").ChatComplete(context.Background(), summarizeRequest(t), func(r ai.Result) {
		results <- r
	})

	select {
	case r := <-results:
		if !r.OK() || r.Text != "Hello" || r.Operation != ai.OpSummarize {
			t.Errorf("unexpected result: %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	select {
	case r := <-results:
		t.Fatalf("unexpected second result: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChatClient_ID(t *testing.T) {
	c := infraAI.NewChatClient(infraAI.ClientConfig{ModelID: "m-1"})
	if c.ID() != "chat:m-1" {
		t.Errorf("ID = %q", c.ID())
	}
}
