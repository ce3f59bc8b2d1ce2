package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/llm"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
	"jamesfarrell.me/youtube-rag/internal/transcript"
)

// State is a step of a pipeline run.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateFetchFailed
	StateFetched
	StateIndexing
	StateIndexFailed
	StateIndexed
	StateAnswering
	StateAnswered
	StateGenerationFailed
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateFetching:         "fetching",
	StateFetchFailed:      "fetch_failed",
	StateFetched:          "fetched",
	StateIndexing:         "indexing",
	StateIndexFailed:      "index_failed",
	StateIndexed:          "indexed",
	StateAnswering:        "answering",
	StateAnswered:         "answered",
	StateGenerationFailed: "generation_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Failed reports whether s is one of the failure end states.
func (s State) Failed() bool {
	return s == StateFetchFailed || s == StateIndexFailed || s == StateGenerationFailed
}

// TranscriptFetcher is implemented by every transcript.Source.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) (string, error)
}

// Generator sends an assembled prompt to a language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of a pipeline run. State is the state the run ended in.
type Result struct {
	State      State
	VideoID    string
	Question   string
	Transcript string
	Context    string
	Chunks     []models.ScoredChunk
	Answer     string
	Err        error
}

func (r Result) Failed() bool {
	return r.State.Failed()
}

// Message is what gets shown to the user for this result.
func (r Result) Message() string {
	switch r.State {
	case StateAnswered:
		return r.Answer
	case StateFetchFailed:
		return transcript.AsFetchError(r.VideoID, r.Err).Message()
	case StateIndexFailed:
		return fmt.Sprintf("Failed to index the transcript: %v", r.Err)
	case StateGenerationFailed:
		return fmt.Sprintf("Failed to generate an answer: %v", r.Err)
	case StateFetched, StateIndexed:
		return r.Transcript
	}
	return ""
}

type Pipeline struct {
	fetcher   TranscriptFetcher
	indexer   Indexer
	generator Generator
	splitter  *Splitter
	languages []string
	topK      int
	logger    *zap.Logger
	onState   func(State)
}

type Option func(*Pipeline)

func WithLanguages(languages ...string) Option {
	return func(p *Pipeline) {
		if len(languages) > 0 {
			p.languages = languages
		}
	}
}

func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

func WithSplitter(s *Splitter) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.splitter = s
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(p *Pipeline) {
		p.onState = fn
	}
}

func NewPipeline(fetcher TranscriptFetcher, indexer Indexer, generator Generator, opts ...Option) *Pipeline {
	splitter, _ := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	p := &Pipeline{
		fetcher:   fetcher,
		indexer:   indexer,
		generator: generator,
		splitter:  splitter,
		languages: []string{"en"},
		topK:      DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ForLanguages returns a copy of p that asks for the given caption
// languages. With no languages it returns p itself.
func (p *Pipeline) ForLanguages(languages ...string) *Pipeline {
	if len(languages) == 0 {
		return p
	}
	cp := *p
	cp.languages = languages
	return &cp
}

// Run fetches the transcript, indexes it and answers question from it. An
// empty question stops the run once the transcript is fetched. The index is
// built for this run only and closed before Run returns.
func (p *Pipeline) Run(ctx context.Context, videoID, question string) Result {
	res := Result{VideoID: videoID, Question: question}
	p.enter(&res, StateIdle)

	if !p.fetch(ctx, &res) || strings.TrimSpace(question) == "" {
		return res
	}

	idx, ok := p.index(ctx, &res)
	if !ok {
		return res
	}
	defer func() {
		if err := idx.Close(); err != nil {
			p.logger.Warn("close index", zap.String("video_id", videoID), zap.Error(err))
		}
	}()

	p.answer(ctx, idx, &res)
	return res
}

func (p *Pipeline) fetch(ctx context.Context, res *Result) bool {
	p.enter(res, StateFetching)
	start := time.Now()
	text, err := p.fetcher.Fetch(ctx, res.VideoID, p.languages)
	if err != nil {
		fe := transcript.AsFetchError(res.VideoID, err)
		res.Err = fe
		p.logger.Warn("transcript fetch failed",
			zap.String("video_id", res.VideoID),
			zap.Stringer("kind", fe.Kind),
			zap.Error(err))
		p.enter(res, StateFetchFailed)
		return false
	}
	res.Transcript = text
	p.logger.Info("transcript fetched",
		zap.String("video_id", res.VideoID),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	p.enter(res, StateFetched)
	return true
}

func (p *Pipeline) index(ctx context.Context, res *Result) (Index, bool) {
	p.enter(res, StateIndexing)
	chunks := p.splitter.Split(res.Transcript)
	idx, err := p.indexer.Build(ctx, chunks)
	if err != nil {
		res.Err = err
		p.logger.Error("index build failed", zap.String("video_id", res.VideoID), zap.Error(err))
		p.enter(res, StateIndexFailed)
		return nil, false
	}
	p.logger.Info("transcript indexed", zap.String("video_id", res.VideoID), zap.Int("chunks", idx.Len()))
	p.enter(res, StateIndexed)
	return idx, true
}

func (p *Pipeline) answer(ctx context.Context, idx Index, res *Result) {
	p.enter(res, StateAnswering)

	retrieved, hits, err := Retrieve(ctx, idx, res.Question, p.topK)
	if err != nil {
		res.Err = fmt.Errorf("retrieve context: %w", err)
		p.logger.Error("retrieval failed", zap.String("video_id", res.VideoID), zap.Error(err))
		p.enter(res, StateGenerationFailed)
		return
	}
	res.Context = retrieved
	res.Chunks = hits

	answer, err := p.generator.Generate(ctx, AssemblePrompt(retrieved, res.Question))
	if err != nil {
		var genErr *llm.GenerationError
		if !errors.As(err, &genErr) {
			err = &llm.GenerationError{Err: err}
		}
		res.Err = err
		p.logger.Error("generation failed", zap.String("video_id", res.VideoID), zap.Error(err))
		p.enter(res, StateGenerationFailed)
		return
	}
	res.Answer = answer
	p.enter(res, StateAnswered)
}

func (p *Pipeline) enter(res *Result, s State) {
	res.State = s
	p.logger.Debug("pipeline state", zap.String("video_id", res.VideoID), zap.Stringer("state", s))
	if p.onState != nil {
		p.onState(s)
	}
}
