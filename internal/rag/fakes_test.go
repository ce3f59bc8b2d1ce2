package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"unicode"

	"jamesfarrell.me/youtube-rag/internal/transcript"
)

const fakeDims = 64

// bagOfWordsEmbedder hashes lowercased words into a fixed-size count vector.
type bagOfWordsEmbedder struct {
	calls  int
	inputs int
	err    error
}

func (e *bagOfWordsEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.inputs += len(texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, fakeDims)
		for _, w := range words(text) {
			h := fnv.New32a()
			h.Write([]byte(w))
			vec[h.Sum32()%fakeDims]++
		}
		out[i] = vec
	}
	return out, nil
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// staticFetcher returns a fixed transcript or error.
type staticFetcher struct {
	text  string
	err   error
	calls int
}

func (f *staticFetcher) Fetch(_ context.Context, videoID string, _ []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// mapFetcher serves a transcript per video ID and reports unknown IDs as unavailable.
type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, videoID string, _ []string) (string, error) {
	text, ok := m[videoID]
	if !ok {
		return "", &transcript.FetchError{Kind: transcript.KindVideoUnavailable, VideoID: videoID}
	}
	return text, nil
}

// groundedGenerator imitates a model that follows the answer prompt: it
// answers from the context when the context shares a content word with the
// question and replies with FallbackAnswer otherwise.
type groundedGenerator struct {
	prompts []string
	err     error
}

var stopWords = map[string]bool{"is": true, "a": true, "an": true, "the": true, "what": true, "of": true, "in": true, "are": true, "how": true, "to": true}

func (g *groundedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	body := strings.TrimPrefix(prompt, strings.SplitN(answerPrompt, "{context}", 2)[0])
	parts := strings.SplitN(body, "\nQuestion: ", 2)
	if len(parts) != 2 {
		return "", errors.New("prompt does not follow the template")
	}
	retrieved, question := parts[0], parts[1]

	contextWords := map[string]bool{}
	for _, w := range words(retrieved) {
		contextWords[w] = true
	}
	for _, w := range words(question) {
		if !stopWords[w] && contextWords[w] {
			return "Yes. According to the transcript: " + strings.TrimSpace(retrieved), nil
		}
	}
	return FallbackAnswer, nil
}

// trackingIndexer wraps another Indexer and records built indexes.
type trackingIndexer struct {
	inner    Indexer
	built    []*trackingIndex
	buildErr error
}

func (t *trackingIndexer) Build(ctx context.Context, chunks []string) (Index, error) {
	if t.buildErr != nil {
		return nil, t.buildErr
	}
	idx, err := t.inner.Build(ctx, chunks)
	if err != nil {
		return nil, err
	}
	ti := &trackingIndex{Index: idx, chunks: chunks}
	t.built = append(t.built, ti)
	return ti, nil
}

type trackingIndex struct {
	Index
	chunks []string
	closed bool
}

func (t *trackingIndex) Close() error {
	t.closed = true
	return t.Index.Close()
}
