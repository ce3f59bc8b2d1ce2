package rag

import (
	"context"
	"strings"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

// Retrieve queries idx for the question and joins the hits, best first,
// with a blank line between them.
func Retrieve(ctx context.Context, idx Index, question string, k int) (string, []models.ScoredChunk, error) {
	hits, err := idx.Query(ctx, question, k)
	if err != nil {
		return "", nil, err
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return strings.Join(texts, "\n\n"), hits, nil
}
