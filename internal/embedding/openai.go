package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/degreefyd/assistant/pkg/utils"
)

// DefaultTimeout bounds one embeddings request, retries included.
const DefaultTimeout = 30 * time.Second

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	timeout    time.Duration
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	apiKey         string
	baseURL        string
	timeout        time.Duration
	requestOptions []option.RequestOption
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) OpenAIOption {
	return func(o *openAIOptions) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) { o.baseURL = url }
}

// WithTimeout sets the per-request deadline. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *openAIOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRequestOptions appends raw client options, e.g. a custom HTTP client in tests.
func WithRequestOptions(opts ...option.RequestOption) OpenAIOption {
	return func(o *openAIOptions) { o.requestOptions = append(o.requestOptions, opts...) }
}

// NewOpenAIEmbedder returns an embedder for model producing vectors of the
// given dimensions.
func NewOpenAIEmbedder(model string, dimensions int, opts ...OpenAIOption) (*OpenAIEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	o := openAIOptions{timeout: DefaultTimeout}
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
	return &OpenAIEmbedder{
		client:     openai.NewClient(clientOpts...),
		model:      model,
		dimensions: dimensions,
		timeout:    o.timeout,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request. Output order matches input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if strings.HasPrefix(e.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Data))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(d.Embedding), e.dimensions)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		utils.NormalizeL2(vec)
		out[d.Index] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
