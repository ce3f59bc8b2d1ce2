package transcript

import (
	"errors"
	"fmt"
)

// Kind classifies why a transcript could not be fetched.
type Kind int

const (
	KindUnknown Kind = iota
	KindTranscriptsDisabled
	KindNoTranscriptFound
	KindVideoUnavailable
)

var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled")
	ErrNoTranscriptFound   = errors.New("no transcript found")
	ErrVideoUnavailable    = errors.New("video is unavailable")
)

func (k Kind) String() string {
	switch k {
	case KindTranscriptsDisabled:
		return "TranscriptsDisabled"
	case KindNoTranscriptFound:
		return "NoTranscriptFound"
	case KindVideoUnavailable:
		return "VideoUnavailable"
	case KindUnknown:
		return "FetchUnknownError"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindTranscriptsDisabled:
		return ErrTranscriptsDisabled
	case KindNoTranscriptFound:
		return ErrNoTranscriptFound
	case KindVideoUnavailable:
		return ErrVideoUnavailable
	}
	return nil
}

// FetchError is returned by every transcript source when a transcript
// cannot be produced for a video.
type FetchError struct {
	Kind    Kind
	VideoID string
	Err     error
}

func newFetchError(kind Kind, videoID string, err error) *FetchError {
	return &FetchError{Kind: kind, VideoID: videoID, Err: err}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch transcript %s: %s", e.VideoID, e.Kind)
	}
	return fmt.Sprintf("fetch transcript %s: %s: %v", e.VideoID, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Message returns the text shown to the user for this failure.
func (e *FetchError) Message() string {
	switch e.Kind {
	case KindTranscriptsDisabled:
		return "Transcripts are disabled for this video."
	case KindNoTranscriptFound:
		return "No transcript found for the requested language."
	case KindVideoUnavailable:
		return "The video is unavailable."
	case KindUnknown:
		return fmt.Sprintf("An unexpected error occurred: %v", e.Err)
	}
	return fmt.Sprintf("An unexpected error occurred: %v", e)
}

// AsFetchError unwraps err into a *FetchError. Errors that did not come
// from a transcript source are classified as KindUnknown.
func AsFetchError(videoID string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return newFetchError(KindUnknown, videoID, err)
}
