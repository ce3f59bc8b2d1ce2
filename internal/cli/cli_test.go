package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVTT = `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:04.000
Deepseek is a Chinese AI company

00:01:04.500 --> 00:01:08.000
founded in 2023.
`

func init() {
	color.NoColor = true
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "DATABASE_URL", "DATABASE_URL_DEFAULT",
		"YTRAG_BASE_URL", "YTRAG_LANGUAGES", "YTRAG_TOP_K", "YTRAG_DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeVTT(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.vtt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVTT), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	code = run(context.Background(), root, args, &errOut)
	return code, out.String(), errOut.String()
}

// fakeGemini serves the two OpenAI-compatible endpoints the pipeline calls.
func fakeGemini(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			data := make([]map[string]any, len(req.Input))
			for i := range req.Input {
				data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{1, float32(i)}}
			}
			json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			json.NewEncoder(w).Encode(map[string]any{
				"id": "c1", "object": "chat.completion",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": answer},
					"finish_reason": "stop",
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscriptFromVTT(t *testing.T) {
	isolateEnv(t)
	path := writeVTT(t)

	code, stdout, stderr := execute(t, "transcript", "--vtt", path, "local")

	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "Deepseek is a Chinese AI company founded in 2023.\n", stdout)
}

func TestTranscriptTimestamps(t *testing.T) {
	isolateEnv(t)
	path := writeVTT(t)

	code, stdout, _ := execute(t, "transcript", "--timestamps", "--vtt", path, "local")

	assert.Equal(t, 0, code)
	assert.Equal(t, "[00:00:01] Deepseek is a Chinese AI company\n[00:01:04] founded in 2023.\n", stdout)
}

func TestTranscriptMissingFile(t *testing.T) {
	isolateEnv(t)

	code, stdout, stderr := execute(t, "transcript", "--vtt", filepath.Join(t.TempDir(), "none.vtt"), "local")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "An unexpected error occurred:")
}

func TestAskRequiresAPIKey(t *testing.T) {
	isolateEnv(t)

	code, _, stderr := execute(t, "ask", "--vtt", writeVTT(t), "local", "Is Deepseek a chinese company?")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: no API key: set GOOGLE_API_KEY or GEMINI_API_KEY")
}

func TestAskAnswersFromVTT(t *testing.T) {
	isolateEnv(t)
	srv := fakeGemini(t, "Yes, Deepseek is a Chinese AI company.")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("YTRAG_BASE_URL", srv.URL)

	code, stdout, stderr := execute(t, "ask", "--show-transcript", "--vtt", writeVTT(t), "local", "Is", "Deepseek", "a", "chinese", "company?")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Transcript\nDeepseek is a Chinese AI company founded in 2023.\n")
	assert.True(t, strings.HasSuffix(stdout, "Yes, Deepseek is a Chinese AI company.\n"))
}

func TestAskReportsProviderFailure(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"backend exploded","type":"server_error"}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("YTRAG_BASE_URL", srv.URL)

	code, stdout, stderr := execute(t, "ask", "--vtt", writeVTT(t), "local", "why?")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Failed to index the transcript:")
	assert.NotContains(t, stderr, "Error:")
}

func TestAskWithoutQuestionPrintsTranscript(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	code, stdout, _ := execute(t, "ask", "--vtt", writeVTT(t), "local")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Deepseek is a Chinese AI company founded in 2023.\n", stdout)
}

func TestAskArgs(t *testing.T) {
	isolateEnv(t)

	code, _, stderr := execute(t, "ask")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "requires at least 1 arg")
}

func TestInvalidConfigIsReported(t *testing.T) {
	isolateEnv(t)

	code, _, stderr := execute(t, "--top-k=-1", "transcript", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "TopK must be > 0")
}

func TestAudioFallbackRequiresKey(t *testing.T) {
	isolateEnv(t)

	code, _, stderr := execute(t, "transcript", "--audio-fallback", "dQw4w9WgXcQ")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: audio fallback needs a speech-to-text key: set LEMONFOX_API_KEY")
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "00:00:00", formatOffset(0))
	assert.Equal(t, "00:01:04", formatOffset(64500*time.Millisecond))
	assert.Equal(t, "02:03:04", formatOffset(2*time.Hour+3*time.Minute+4*time.Second))
}
