package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

// DefaultTopK keeps prompts short at the cost of recall.
const DefaultTopK = 2

var errInvalidK = errors.New("k must be greater than zero")

// Embedder turns texts into vectors, one per input in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index answers nearest-neighbour queries over the chunks of one transcript.
type Index interface {
	Query(ctx context.Context, text string, k int) ([]models.ScoredChunk, error)
	Len() int
	Close() error
}

// Indexer embeds a chunk sequence and builds a fresh Index from it.
type Indexer interface {
	Build(ctx context.Context, chunks []string) (Index, error)
}

// MemoryIndexer builds exact cosine-similarity indexes held in memory.
type MemoryIndexer struct {
	embedder Embedder
}

func NewMemoryIndexer(embedder Embedder) *MemoryIndexer {
	return &MemoryIndexer{embedder: embedder}
}

func (b *MemoryIndexer) Build(ctx context.Context, texts []string) (Index, error) {
	chunks, err := embedChunks(ctx, b.embedder, texts)
	if err != nil {
		return nil, err
	}
	return &MemoryIndex{embedder: b.embedder, chunks: chunks}, nil
}

type MemoryIndex struct {
	embedder Embedder
	chunks   []models.Chunk
}

func (ix *MemoryIndex) Len() int {
	return len(ix.chunks)
}

func (ix *MemoryIndex) Close() error {
	ix.chunks = nil
	return nil
}

// Query returns at most k chunks, most similar first. Chunks whose vector
// dimension differs from the query's are skipped.
func (ix *MemoryIndex) Query(ctx context.Context, text string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, errInvalidK
	}
	queryVec, err := embedOne(ctx, ix.embedder, text)
	if err != nil {
		return nil, err
	}

	scored := make([]models.ScoredChunk, 0, len(ix.chunks))
	queryNorm := vectorNorm(queryVec)
	for _, c := range ix.chunks {
		if len(c.Embedding) != len(queryVec) {
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Chunk:      c,
			Similarity: cosineSimilarity(queryVec, c.Embedding, queryNorm),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func embedChunks(ctx context.Context, embedder Embedder, texts []string) ([]models.Chunk, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{Position: i, Text: text, Embedding: vectors[i]}
	}
	return chunks, nil
}

func embedOne(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	vectors, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embed query: empty vector")
	}
	return vectors[0], nil
}

func cosineSimilarity(a, b []float32, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := vectorNorm(b)
	if normB == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	sum := 0.0
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}
