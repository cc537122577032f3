package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

type chatBody struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_completion_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	CompoundCustom json.RawMessage `json:"compound_custom"`
	Stream         bool            `json:"stream"`
}

func completionJSON(content string) string {
	b, _ := json.Marshal(content)
	return `{"id":"c1","object":"chat.completion","created":1,"model":"m",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(b) + `}}]}`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(
		WithAPIKey("test"),
		WithBaseURL(srv.URL),
		WithRequestOptions(option.WithMaxRetries(0)),
	)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON(" relevant\n")))
	})

	out, err := c.Complete(context.Background(), FastRequest{Prompt: "judge this", MaxTokens: 5})
	if err != nil {
		t.Fatal(err)
	}
	if out != " relevant\n" {
		t.Errorf("content = %q", out)
	}
	if got.Model != DefaultFastModel || got.MaxTokens != 5 || got.Temperature != 0 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "judge this" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got chatBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("IIT Bombay fees are INR 2.3 lakh.")))
	})

	out, err := c.Generate(context.Background(), GenerateRequest{
		Query:   "fees at IIT Bombay",
		Context: "=== Structured College Data ===\nName: IIT Bombay",
		Web:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "IIT Bombay fees are INR 2.3 lakh." {
		t.Errorf("answer = %q", out)
	}
	if got.Model != DefaultAnswerModel || got.MaxTokens != DefaultAnswerMaxTokens || got.Temperature != DefaultAnswerTemperature {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "fees at IIT Bombay" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, "Context from DegreeFYD database:\n=== Structured College Data ===") {
		t.Errorf("system prompt = %q", got.Messages[0].Content)
	}
	if !strings.Contains(string(got.CompoundCustom), `"web_search"`) {
		t.Errorf("compound_custom = %s", got.CompoundCustom)
	}
}

func TestOpenAIClient_GenerateWithoutWeb(t *testing.T) {
	var got chatBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("ok")))
	})
	if _, err := c.Generate(context.Background(), GenerateRequest{Query: "q"}); err != nil {
		t.Fatal(err)
	}
	if len(got.CompoundCustom) != 0 {
		t.Errorf("compound_custom should be absent, got %s", got.CompoundCustom)
	}
	if got.Messages[0].Content != systemPromptNoContext {
		t.Errorf("system prompt = %q", got.Messages[0].Content)
	}
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	})
	if _, err := c.Generate(context.Background(), GenerateRequest{Query: "q"}); err == nil {
		t.Error("expected error for 400 response")
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	})
	if _, err := c.Complete(context.Background(), FastRequest{Prompt: "p"}); err != ErrEmptyResponse {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func sseChunk(content string) string {
	b, _ := json.Marshal(content)
	return fmt.Sprintf("data: {\"id\":\"s1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\","+
		"\"choices\":[{\"index\":0,\"delta\":{\"content\":%s},\"finish_reason\":null}]}\n\n", b)
}

func TestOpenAIClient_Stream(t *testing.T) {
	var got chatBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseChunk("JEE Main")))
		_, _ = w.Write([]byte(sseChunk("")))
		_, _ = w.Write([]byte(sseChunk(" is in January.")))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	})

	s := c.Stream(context.Background(), GenerateRequest{Query: "JEE Main date"})
	defer s.Close()
	var parts []string
	for s.Next() {
		parts = append(parts, s.Current())
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 || strings.Join(parts, "") != "JEE Main is in January." {
		t.Errorf("parts = %q", parts)
	}
	if !got.Stream {
		t.Error("request should ask for a stream")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if s.Next() {
		t.Error("closed stream should not advance")
	}
}

func TestOpenAIClient_StreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	})
	s := c.Stream(context.Background(), GenerateRequest{Query: "q"})
	defer s.Close()
	if s.Next() {
		t.Fatal("failed stream should not yield")
	}
	if s.Err() == nil {
		t.Error("expected stream error")
	}
}
