package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"github.com/apexai-labs/onyx/internal/domain"
)

func completionBody(content string) string {
	return `{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"model": "gpt-4o",
		"choices": [
			{"index": 0, "message": {"role": "assistant", "content": ` + mustJSON(content) + `}, "finish_reason": "stop"}
		]
	}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestCompleter(t *testing.T, srv *httptest.Server, opts ...CompleterOption) *Completer {
	t.Helper()
	opts = append(opts, WithRequestOptions(option.WithBaseURL(srv.URL), option.WithMaxRetries(0)))
	c, err := NewCompleter("test-key", opts...)
	if err != nil {
		t.Fatalf("NewCompleter() error = %v", err)
	}
	return c
}

func TestComplete(t *testing.T) {
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("Our plans start at $99/mo.")))
	}))
	defer srv.Close()

	c := newTestCompleter(t, srv, WithModel("gpt-4o-mini"))

	transcript := []domain.Turn{
		{Role: domain.RoleSystem, Text: "be helpful"},
		{Role: domain.RoleUser, Text: "what is your pricing?"},
	}
	got, err := c.Complete(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Our plans start at $99/mo." {
		t.Errorf("Complete() = %q", got)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("request model = %q, want gpt-4o-mini", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("request has %d messages, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "be helpful" {
		t.Errorf("messages[0] = %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "what is your pricing?" {
		t.Errorf("messages[1] = %+v", gotReq.Messages[1])
	}
}

func TestComplete_RoleMapping(t *testing.T) {
	var roles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		roles = roles[:0]
		for _, m := range req.Messages {
			roles = append(roles, m.Role)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	c := newTestCompleter(t, srv)
	transcript := []domain.Turn{
		{Role: domain.RoleSystem, Text: "s"},
		{Role: domain.RoleUser, Text: "q1"},
		{Role: domain.RoleAssistant, Text: "a1"},
		{Role: domain.RoleUser, Text: "q2"},
	}
	if _, err := c.Complete(context.Background(), transcript); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("request roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("roles[%d] = %q, want %q", i, roles[i], want[i])
		}
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	c := newTestCompleter(t, srv)
	if _, err := c.Complete(context.Background(), []domain.Turn{{Role: domain.RoleUser, Text: "hi"}}); err == nil {
		t.Error("Complete() error = nil, want no-choices error")
	}
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestCompleter(t, srv)
	if _, err := c.Complete(context.Background(), []domain.Turn{{Role: domain.RoleUser, Text: "hi"}}); err == nil {
		t.Error("Complete() error = nil, want API error")
	}
}

func TestComplete_TrimsToBudget(t *testing.T) {
	var messageCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		messageCount = len(req.Messages)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	c := newTestCompleter(t, srv, WithTokenBudget(60))

	transcript := []domain.Turn{{Role: domain.RoleSystem, Text: "be helpful"}}
	for i := 0; i < 30; i++ {
		transcript = append(transcript,
			domain.Turn{Role: domain.RoleUser, Text: "a fairly long question about pricing and features"},
			domain.Turn{Role: domain.RoleAssistant, Text: "a fairly long answer about pricing and features"},
		)
	}
	if _, err := c.Complete(context.Background(), transcript); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if messageCount >= len(transcript) {
		t.Errorf("request carried %d messages, want fewer than %d after trimming", messageCount, len(transcript))
	}
}
