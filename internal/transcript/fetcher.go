package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

var (
	errPlayerResponseMissing   = errors.New("ytInitialPlayerResponse not found in watch page")
	errPlayerResponseMalformed = errors.New("failed to extract ytInitialPlayerResponse JSON")
	errEmptyTranscript         = errors.New("caption track returned no segments")
	errPoTokenRequired         = errors.New("caption track requires a browser PoToken")
	errEmptyTimedText          = errors.New("caption track returned an empty body")
)

// Fetcher retrieves transcripts by reading the caption tracks listed on a
// video's watch page.
type Fetcher struct {
	client   *http.Client
	watchURL string
	logger   *zap.Logger
}

type Option func(*Fetcher)

// WithWatchURL overrides the watch page prefix; the video ID is appended.
func WithWatchURL(prefix string) Option {
	return func(f *Fetcher) {
		f.watchURL = prefix
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	f := &Fetcher{
		client:   client,
		watchURL: defaultWatchURL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the transcript text: the ordered segment texts joined by a single space.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	segments, err := f.Segments(ctx, videoID, languages)
	if err != nil {
		return "", err
	}
	return Join(segments), nil
}

// Segments returns the timed caption segments for videoID in the first
// available language of languages.
func (f *Fetcher) Segments(ctx context.Context, videoID string, languages []string) ([]models.Segment, error) {
	id, err := ExtractVideoID(videoID)
	if err != nil {
		return nil, newFetchError(KindUnknown, videoID, err)
	}
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	page, err := f.get(ctx, f.watchURL+url.QueryEscape(id), maxWatchPageBytes)
	if err != nil {
		return nil, newFetchError(KindUnknown, id, fmt.Errorf("watch page: %w", err))
	}

	player, err := parsePlayerResponse(page)
	if err != nil {
		return nil, newFetchError(KindUnknown, id, err)
	}

	if ps := player.PlayabilityStatus; ps != nil {
		switch ps.Status {
		case "", "OK":
		case "ERROR", "UNPLAYABLE", "LOGIN_REQUIRED":
			return nil, newFetchError(KindVideoUnavailable, id, errors.New(playabilityReason(ps.Status, ps.Reason)))
		default:
			return nil, newFetchError(KindUnknown, id, errors.New(playabilityReason(ps.Status, ps.Reason)))
		}
	}

	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, newFetchError(KindTranscriptsDisabled, id, nil)
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks

	track, ok := pickTrack(usableTracks(tracks), languages)
	if !ok {
		if gated, found := pickTrack(tracks, languages); found {
			return nil, newFetchError(KindNoTranscriptFound, id,
				fmt.Errorf("%s: %w", gated.LanguageCode, errPoTokenRequired))
		}
		return nil, newFetchError(KindNoTranscriptFound, id,
			fmt.Errorf("requested %v, available %v", languages, availableLanguages(tracks)))
	}
	f.logger.Debug("caption track selected",
		zap.String("video_id", id),
		zap.String("language", track.LanguageCode),
		zap.Bool("generated", track.Kind == "asr"))

	body, err := f.get(ctx, strings.Replace(track.BaseURL, "&fmt=srv3", "", 1), maxTimedTextBytes)
	if err != nil {
		return nil, newFetchError(KindUnknown, id, fmt.Errorf("timedtext: %w", err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, newFetchError(KindNoTranscriptFound, id, errEmptyTimedText)
	}
	segments, err := parseTimedText(body)
	if err != nil {
		return nil, newFetchError(KindUnknown, id, fmt.Errorf("parse timedtext XML: %w", err))
	}
	if len(segments) == 0 {
		return nil, newFetchError(KindUnknown, id, errEmptyTranscript)
	}

	f.logger.Info("transcript fetched",
		zap.String("video_id", id),
		zap.Int("segments", len(segments)))
	return segments, nil
}

func (f *Fetcher) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Skips the EU consent interstitial.
	req.Header.Set("Cookie", "CONSENT=YES+cb")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func playabilityReason(status, reason string) string {
	if reason == "" {
		return "playability status " + status
	}
	return reason
}

// Join concatenates segment texts with a single space.
func Join(segments []models.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}
