package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks mini-qna/internal/llm Embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmbedding marks failures of the embeddings provider.
var ErrEmbedding = errors.New("embedding provider error")

// ErrUnavailable is returned without calling the provider while the circuit
// breaker is open.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingsClient calls an OpenAI-compatible embeddings endpoint.
type EmbeddingsClient struct {
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *openai.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// baseURL is the server root (e.g. http://localhost:8080); "/v1" is appended
// when missing. expectedSize is the expected vector size (from QDRANT_VECTOR_SIZE config).
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = apiRoot(baseURL)

	return &EmbeddingsClient{
		Model:        model,
		ExpectedSize: expectedSize,
		client:       openai.NewClientWithConfig(clientCfg),
	}
}

func apiRoot(baseURL string) string {
	root := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(root, "/v1") {
		root += "/v1"
	}
	return root
}

// EmbedTexts generates embeddings for the given texts and validates that
// every vector matches ExpectedSize.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(c.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d: %w", len(texts), len(resp.Data), ErrEmbedding)
	}

	result := make([][]float32, len(texts))
	for i, data := range resp.Data {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d: %w", i, len(data.Embedding), c.ExpectedSize, ErrEmbedding)
		}
		idx := data.Index
		if idx < 0 || idx >= len(texts) || result[idx] != nil {
			idx = i
		}
		result[idx] = data.Embedding
	}

	return result, nil
}

// parseAPIError keeps the provider status and message and wraps ErrEmbedding.
func parseAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, ErrEmbedding)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), ErrEmbedding)
	}

	return fmt.Errorf("embedding request failed: %v: %w", err, ErrEmbedding)
}
