package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

// DefaultTranscribeBaseURL is Lemonfox's Whisper-compatible endpoint.
const DefaultTranscribeBaseURL = "https://api.lemonfox.ai/v1"

// Source produces the timed segments and the joined transcript of a video.
// Fetcher, VTTFile, AudioTranscriber and Fallback implement it.
type Source interface {
	Fetch(ctx context.Context, videoID string, languages []string) (string, error)
	Segments(ctx context.Context, videoID string, languages []string) ([]models.Segment, error)
}

// DownloadFunc writes the audio track of videoURL to outputPath.
type DownloadFunc func(ctx context.Context, videoURL, outputPath string) error

// YTDLP downloads the best audio stream as mp3 with the yt-dlp binary.
func YTDLP(ctx context.Context, videoURL, outputPath string) error {
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"-o", outputPath,
		videoURL)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("download audio: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// AudioTranscriber downloads a video's audio and sends it to a
// speech-to-text endpoint that answers in WebVTT.
type AudioTranscriber struct {
	client   *openai.Client
	model    string
	download DownloadFunc
	watchURL string
	tempDir  string
	logger   *zap.Logger
}

type AudioOption func(*AudioTranscriber)

func WithDownloader(fn DownloadFunc) AudioOption {
	return func(a *AudioTranscriber) {
		a.download = fn
	}
}

// WithTempDir sets where the downloaded audio is staged. Defaults to os.TempDir.
func WithTempDir(dir string) AudioOption {
	return func(a *AudioTranscriber) {
		a.tempDir = dir
	}
}

func WithAudioLogger(logger *zap.Logger) AudioOption {
	return func(a *AudioTranscriber) {
		a.logger = logger
	}
}

func NewAudioTranscriber(client *openai.Client, model string, opts ...AudioOption) *AudioTranscriber {
	a := &AudioTranscriber{
		client:   client,
		model:    model,
		download: YTDLP,
		watchURL: defaultWatchURL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Segments transcribes the audio in the first requested language. The audio
// file is removed before returning.
func (a *AudioTranscriber) Segments(ctx context.Context, videoID string, languages []string) ([]models.Segment, error) {
	dir, err := os.MkdirTemp(a.tempDir, "ytrag-audio-")
	if err != nil {
		return nil, newFetchError(KindUnknown, videoID, fmt.Errorf("create temp dir: %w", err))
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, videoID+".mp3")
	a.logger.Info("downloading audio", zap.String("video_id", videoID))
	if err := a.download(ctx, a.watchURL+videoID, path); err != nil {
		return nil, newFetchError(KindUnknown, videoID, err)
	}

	req := openai.AudioRequest{
		Model:    a.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVTT,
	}
	if len(languages) > 0 {
		req.Language = languages[0]
	}
	a.logger.Info("transcribing audio", zap.String("video_id", videoID), zap.String("model", a.model))
	resp, err := a.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, newFetchError(KindUnknown, videoID, fmt.Errorf("transcribe audio: %w", err))
	}

	segments, err := ParseVTT(resp.Text)
	if err != nil {
		return nil, newFetchError(KindUnknown, videoID, err)
	}
	if len(segments) == 0 {
		return nil, newFetchError(KindNoTranscriptFound, videoID, errors.New("transcription has no cues"))
	}
	a.logger.Debug("audio transcribed", zap.String("video_id", videoID), zap.Int("segments", len(segments)))
	return segments, nil
}

func (a *AudioTranscriber) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	segments, err := a.Segments(ctx, videoID, languages)
	if err != nil {
		return "", err
	}
	return Join(segments), nil
}

// Fallback asks Secondary only when Primary reports that the video has no
// usable captions. Every other failure from Primary is returned as is.
type Fallback struct {
	Primary   Source
	Secondary Source
	Logger    *zap.Logger
}

func (f Fallback) Segments(ctx context.Context, videoID string, languages []string) ([]models.Segment, error) {
	segments, err := f.Primary.Segments(ctx, videoID, languages)
	if err == nil || !(errors.Is(err, ErrTranscriptsDisabled) || errors.Is(err, ErrNoTranscriptFound)) {
		return segments, err
	}
	if f.Logger != nil {
		f.Logger.Info("captions unavailable, falling back", zap.String("video_id", videoID), zap.Error(err))
	}
	return f.Secondary.Segments(ctx, videoID, languages)
}

func (f Fallback) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	segments, err := f.Segments(ctx, videoID, languages)
	if err != nil {
		return "", err
	}
	return Join(segments), nil
}
