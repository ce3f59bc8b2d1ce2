package models

import "time"

// Segment is one timed caption line of a transcript.
type Segment struct {
	Number   int
	Text     string
	Start    time.Duration
	Duration time.Duration
}

// End returns the time the segment stops being displayed.
func (s Segment) End() time.Duration {
	return s.Start + s.Duration
}

type Chunk struct {
	Position  int
	Text      string
	Embedding []float32
}

// ScoredChunk is a chunk returned from a similarity query.
type ScoredChunk struct {
	Chunk
	Similarity float64
}

type AskRequest struct {
	VideoID           string   `json:"videoId" validate:"required"`
	Question          string   `json:"question" validate:"required,max=2000"`
	Languages         []string `json:"languages,omitempty" validate:"omitempty,dive,required,max=16"`
	IncludeTranscript bool     `json:"includeTranscript"`
}

type AskResponse struct {
	VideoID    string         `json:"videoId"`
	State      string         `json:"state"`
	Transcript string         `json:"transcript,omitempty"`
	Answer     string         `json:"answer,omitempty"`
	Sources    []SearchResult `json:"sources,omitempty"`
	Error      *ErrorBody     `json:"error,omitempty"`
}

type TranscriptResponse struct {
	VideoID    string     `json:"videoId"`
	Transcript string     `json:"transcript,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

type SearchResult struct {
	Position   int     `json:"position"`
	ChunkText  string  `json:"chunkText"`
	Similarity float64 `json:"similarity"`
}

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
