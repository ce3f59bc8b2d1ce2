package rag

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	errNoVideoLoaded = errors.New("no video loaded")
	errSessionClosed = errors.New("session closed")
)

// Session keeps the index of the currently loaded video so several questions
// can be asked without re-embedding. Loading a new video discards the old index.
// Calls are serialized, and once Close has run the Session refuses new work.
type Session struct {
	pipeline *Pipeline

	mu         sync.Mutex
	closed     bool
	videoID    string
	transcript string
	index      Index
}

func (p *Pipeline) NewSession() *Session {
	return &Session{pipeline: p}
}

func (s *Session) VideoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoID
}

func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Load fetches and indexes videoID. The returned result ends in
// StateIndexed on success.
func (s *Session) Load(ctx context.Context, videoID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{VideoID: videoID}
	if s.closed {
		res.State, res.Err = StateFetchFailed, errSessionClosed
		return res
	}
	s.reset()

	s.pipeline.enter(&res, StateIdle)
	if !s.pipeline.fetch(ctx, &res) {
		return res
	}
	idx, ok := s.pipeline.index(ctx, &res)
	if !ok {
		return res
	}

	s.videoID = videoID
	s.transcript = res.Transcript
	s.index = idx
	return res
}

// Ask answers question from the loaded video. Each call is independent.
func (s *Session) Ask(ctx context.Context, question string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{VideoID: s.videoID, Question: question, Transcript: s.transcript, State: StateIndexed}
	if s.index == nil {
		res.State = StateGenerationFailed
		res.Err = errNoVideoLoaded
		if s.closed {
			res.Err = errSessionClosed
		}
		return res
	}
	if strings.TrimSpace(question) == "" {
		return res
	}
	s.pipeline.answer(ctx, s.index, &res)
	return res
}

// Close releases the loaded index. It waits for a running Load or Ask to
// finish first.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.reset()
}

func (s *Session) reset() error {
	var err error
	if s.index != nil {
		err = s.index.Close()
		if err != nil {
			s.pipeline.logger.Warn("close index", zap.String("video_id", s.videoID), zap.Error(err))
		}
	}
	s.videoID, s.transcript, s.index = "", "", nil
	return err
}
