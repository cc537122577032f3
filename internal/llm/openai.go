package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	"github.com/degreefyd/assistant/internal/models"
)

// Default model settings for the hosted service.
const (
	DefaultFastModel         = "llama-3.1-8b-instant"
	DefaultAnswerModel       = "compound-beta"
	DefaultAnswerTemperature = 0.7
	DefaultAnswerMaxTokens   = 1024
	DefaultFastTimeout       = 15 * time.Second
	DefaultAnswerTimeout     = 90 * time.Second
)

// webSearchTools is the compound_custom body enabling the web search tool.
var webSearchTools = map[string]any{
	"tools": map[string]any{
		"enabled_tools": []string{"web_search"},
	},
}

// OpenAIClient is a Client for an OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	client            openai.Client
	fastModel         string
	answerModel       string
	answerTemperature float64
	answerMaxTokens   int
	fastTimeout       time.Duration
	answerTimeout     time.Duration
}

// Option configures an OpenAIClient.
type Option func(*clientOptions)

type clientOptions struct {
	apiKey         string
	baseURL        string
	requestOptions []option.RequestOption
	c              *OpenAIClient
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *clientOptions) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithModels sets the fast-mode and answer models. Empty names keep the defaults.
func WithModels(fast, answer string) Option {
	return func(o *clientOptions) {
		if fast != "" {
			o.c.fastModel = fast
		}
		if answer != "" {
			o.c.answerModel = answer
		}
	}
}

// WithAnswerSampling sets answer temperature and completion token limit.
func WithAnswerSampling(temperature float64, maxTokens int) Option {
	return func(o *clientOptions) {
		o.c.answerTemperature = temperature
		if maxTokens > 0 {
			o.c.answerMaxTokens = maxTokens
		}
	}
}

// WithTimeouts sets per-call deadlines for fast and answer calls. Zero keeps
// the default.
func WithTimeouts(fast, answer time.Duration) Option {
	return func(o *clientOptions) {
		if fast > 0 {
			o.c.fastTimeout = fast
		}
		if answer > 0 {
			o.c.answerTimeout = answer
		}
	}
}

// WithRequestOptions appends raw client options.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(o *clientOptions) { o.requestOptions = append(o.requestOptions, opts...) }
}

// NewOpenAIClient creates a client with the given options.
func NewOpenAIClient(opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		fastModel:         DefaultFastModel,
		answerModel:       DefaultAnswerModel,
		answerTemperature: DefaultAnswerTemperature,
		answerMaxTokens:   DefaultAnswerMaxTokens,
		fastTimeout:       DefaultFastTimeout,
		answerTimeout:     DefaultAnswerTimeout,
	}
	o := clientOptions{c: c}
	for _, opt := range opts {
		opt(&o)
	}
	var clientOpts []option.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.requestOptions...)
	c.client = openai.NewClient(clientOpts...)
	return c
}

// Complete sends req.Prompt as a single user message to the fast model.
func (c *OpenAIClient) Complete(ctx context.Context, req FastRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fastTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.fastModel),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("fast completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Generate runs a non-streaming answer generation.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.answerTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, c.answerParams(req), c.answerOptions(req)...)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream runs a streaming answer generation. The answer deadline covers the
// whole stream; closing the stream cancels the upstream request.
func (c *OpenAIClient) Stream(ctx context.Context, req GenerateRequest) models.Stream {
	ctx, cancel := context.WithTimeout(ctx, c.answerTimeout)
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.answerParams(req), c.answerOptions(req)...)
	return &chatStream{stream: stream, cancel: cancel}
}

func (c *OpenAIClient) answerParams(req GenerateRequest) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.answerModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(req.Context)),
			openai.UserMessage(req.Query),
		},
		Temperature:         openai.Float(c.answerTemperature),
		MaxCompletionTokens: openai.Int(int64(c.answerMaxTokens)),
		TopP:                openai.Float(1),
	}
}

func (c *OpenAIClient) answerOptions(req GenerateRequest) []option.RequestOption {
	if !req.Web {
		return nil
	}
	return []option.RequestOption{option.WithJSONSet("compound_custom", webSearchTools)}
}

// chatStream adapts an SSE chunk stream to models.Stream, skipping chunks
// with no visible content.
type chatStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	cancel  context.CancelFunc
	current string
	closed  bool
}

func (s *chatStream) Next() bool {
	if s.closed {
		return false
	}
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			s.current = text
			return true
		}
	}
	s.current = ""
	return false
}

func (s *chatStream) Current() string {
	return s.current
}

func (s *chatStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("answer stream failed: %w", err)
	}
	return nil
}

func (s *chatStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return s.stream.Close()
}
