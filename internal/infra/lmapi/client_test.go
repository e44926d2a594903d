package lmapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jgreely/genaistuff/internal/domain"
)

func TestEnhanceSendsChatRequest(t *testing.T) {
	var reqBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "a misty harbor at dawn"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL,
		WithModel("test-model"),
		WithSystemPrompt("rewrite prompts"),
		WithTemperature(0.5),
		WithMaxTokens(200),
	)
	out, err := c.Enhance(context.Background(), "harbor")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if out != "a misty harbor at dawn" {
		t.Errorf("out = %q", out)
	}

	if reqBody["model"] != "test-model" {
		t.Errorf("model = %v", reqBody["model"])
	}
	if reqBody["temperature"] != 0.5 {
		t.Errorf("temperature = %v", reqBody["temperature"])
	}
	msgs, _ := reqBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", msgs)
	}
	system, _ := msgs[0].(map[string]any)
	if system["role"] != "system" || system["content"] != "rewrite prompts" {
		t.Errorf("system message = %v", system)
	}
	user, _ := msgs[1].(map[string]any)
	if user["content"] != "harbor" {
		t.Errorf("user message = %v", user)
	}
}

func TestEnhanceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model not loaded"},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Enhance(context.Background(), "x")
	if !domain.IsKind(err, domain.KindTransport) {
		t.Fatalf("err = %v, want transport kind", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "openai/gpt-oss-20b"},
				{"id": "qwen/qwen3-8b"},
			},
		})
	}))
	defer srv.Close()

	models, err := New(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[1] != "qwen/qwen3-8b" {
		t.Errorf("models = %v", models)
	}
}

// fixedEnhancer returns a canned response so marker handling can be
// tested without a server.
type fixedEnhancer struct {
	response string
	err      error
	prompts  []string
}

func (f *fixedEnhancer) Enhance(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fixedEnhancer) ListModels(context.Context) ([]string, error) { return nil, nil }

func TestRewritePlainLine(t *testing.T) {
	f := &fixedEnhancer{response: "an expanded\nprompt   with detail\n"}
	out, err := Rewrite(context.Background(), f, "a prompt")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if out != "an expanded prompt with detail" {
		t.Errorf("out = %q", out)
	}
	if len(f.prompts) != 1 || f.prompts[0] != "a prompt" {
		t.Errorf("sent prompts = %v", f.prompts)
	}
}

func TestRewriteMarkedSpan(t *testing.T) {
	f := &fixedEnhancer{response: "a weathered lighthouse on a cliff"}
	out, err := Rewrite(context.Background(), f, "score_9, @< lighthouse >@ masterpiece")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if out != "score_9, a weathered lighthouse on a cliff masterpiece" {
		t.Errorf("out = %q", out)
	}
	if f.prompts[0] != "lighthouse" {
		t.Errorf("model saw %q, want just the marked span", f.prompts[0])
	}
}

func TestRewriteStripsReasoning(t *testing.T) {
	cases := []struct{ in, want string }{
		{"<think>\nhmm let me ponder\n</think>\nthe answer", "the answer"},
		{"planning...</seed:think> final text", "final text"},
		{"<|message|>content here", "content here"},
		{"no tags at all", "no tags at all"},
	}
	for _, tc := range cases {
		f := &fixedEnhancer{response: tc.in}
		out, err := Rewrite(context.Background(), f, "x")
		if err != nil {
			t.Fatalf("Rewrite(%q): %v", tc.in, err)
		}
		if out != tc.want {
			t.Errorf("Rewrite(%q) = %q, want %q", tc.in, out, tc.want)
		}
	}
}

func TestRewritePropagatesError(t *testing.T) {
	f := &fixedEnhancer{err: errors.New("connection refused")}
	_, err := Rewrite(context.Background(), f, "x")
	if err == nil {
		t.Fatal("expected error")
	}
}
