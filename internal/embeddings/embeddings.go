package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// maxBatch is the largest input list the provider accepts per request.
const maxBatch = 100

// Client converts text to embedding vectors using the provider's embeddings API.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(client *openai.Client, model string) *Client {
	return &Client{client: client, model: model}
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("embedding creation failed: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), end-start)
		}

		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= end-start {
				return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
			}
			if len(d.Embedding) == 0 {
				return nil, fmt.Errorf("embedding response returned empty vector")
			}
			vectors[start+d.Index] = d.Embedding
		}
	}
	return vectors, nil
}
