package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare id", input: "Y9QfOPxmxVI", want: "Y9QfOPxmxVI"},
		{name: "bare id with spaces", input: "  wAzBl6xllzE \n", want: "wAzBl6xllzE"},
		{name: "watch url", input: "https://www.youtube.com/watch?v=Y9QfOPxmxVI", want: "Y9QfOPxmxVI"},
		{name: "watch url extra params", input: "https://www.youtube.com/watch?v=Y9QfOPxmxVI&t=42s&list=PL1", want: "Y9QfOPxmxVI"},
		{name: "no scheme", input: "youtube.com/watch?v=abc123", want: "abc123"},
		{name: "short link", input: "https://youtu.be/wAzBl6xllzE?si=xyz", want: "wAzBl6xllzE"},
		{name: "shorts", input: "https://www.youtube.com/shorts/abcDEF12345", want: "abcDEF12345"},
		{name: "embed", input: "https://www.youtube.com/embed/abcDEF12345", want: "abcDEF12345"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "channel url", input: "https://www.youtube.com/@somechannel", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
