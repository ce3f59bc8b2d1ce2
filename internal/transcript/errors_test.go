package transcript

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchErrorMatching(t *testing.T) {
	err := fmt.Errorf("load video: %w", newFetchError(KindTranscriptsDisabled, "abc", nil))

	assert.ErrorIs(t, err, ErrTranscriptsDisabled)
	assert.NotErrorIs(t, err, ErrVideoUnavailable)
	assert.Equal(t, "load video: fetch transcript abc: TranscriptsDisabled", err.Error())

	fe := AsFetchError("abc", err)
	assert.Equal(t, KindTranscriptsDisabled, fe.Kind)
}

func TestAsFetchErrorClassifiesForeignErrors(t *testing.T) {
	assert.Nil(t, AsFetchError("abc", nil))

	fe := AsFetchError("abc", errors.New("connection reset"))
	assert.Equal(t, KindUnknown, fe.Kind)
	assert.Equal(t, "An unexpected error occurred: connection reset", fe.Message())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "FetchUnknownError", KindUnknown.String())
	assert.Equal(t, "VideoUnavailable", KindVideoUnavailable.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
