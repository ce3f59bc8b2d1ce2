package transcript

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

// ParseVTT parses WebVTT content into caption segments
func ParseVTT(content string) ([]models.Segment, error) {
	// Trim any quotes from the content
	content = strings.Trim(content, "\"")

	// Convert literal \n to actual newlines if needed
	if strings.Contains(content, "\\n") {
		content = strings.ReplaceAll(content, "\\n", "\n")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	if !strings.HasPrefix(content, "WEBVTT") {
		return nil, fmt.Errorf("invalid VTT format: missing WEBVTT header")
	}

	segments := []models.Segment{}
	blocks := strings.Split(content, "\n\n")

	// The first block is the header plus optional metadata (Kind:, Language:).
	for _, block := range blocks[1:] {
		lines := strings.Split(strings.Trim(block, "\n"), "\n")

		// Skip an optional cue identifier
		if len(lines) > 0 && !strings.Contains(lines[0], "-->") {
			lines = lines[1:]
		}
		if len(lines) < 2 {
			continue
		}

		timestamps := strings.Split(lines[0], " --> ")
		if len(timestamps) != 2 {
			continue
		}

		start, err := parseVTTTimestamp(timestamps[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start timestamp: %w", err)
		}

		// Cue settings may follow the end timestamp
		endField := strings.Fields(timestamps[1])
		if len(endField) == 0 {
			return nil, fmt.Errorf("invalid end timestamp: empty")
		}
		end, err := parseVTTTimestamp(endField[0])
		if err != nil {
			return nil, fmt.Errorf("invalid end timestamp: %w", err)
		}

		text := cleanCaptionText(strings.Join(lines[1:], " "))
		if text == "" {
			continue
		}

		segments = append(segments, models.Segment{
			Number:   len(segments) + 1,
			Text:     text,
			Start:    start,
			Duration: end - start,
		})
	}

	return segments, nil
}

func parseVTTTimestamp(timestamp string) (time.Duration, error) {
	timestamp = strings.TrimSpace(timestamp)

	// Validate format (HH:MM:SS.mmm or MM:SS.mmm)
	if !strings.Contains(timestamp, ".") {
		return 0, fmt.Errorf("invalid timestamp format: missing milliseconds")
	}

	parts := strings.Split(timestamp, ":")
	var hours, minutes int
	var err error
	switch len(parts) {
	case 3:
		if len(parts[0]) < 2 {
			return 0, fmt.Errorf("invalid timestamp format: expected HH:MM:SS.mmm")
		}
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid hours: %w", err)
		}
		parts = parts[1:]
	case 2:
	default:
		return 0, fmt.Errorf("invalid timestamp format: expected HH:MM:SS.mmm")
	}
	if len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid timestamp format: expected two-digit minutes")
	}

	if minutes, err = strconv.Atoi(parts[0]); err != nil {
		return 0, fmt.Errorf("invalid minutes: %w", err)
	}

	// Split seconds and milliseconds
	secondParts := strings.Split(parts[1], ".")
	if len(secondParts) != 2 {
		return 0, fmt.Errorf("invalid seconds format: missing milliseconds")
	}

	seconds, err := strconv.Atoi(secondParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds: %w", err)
	}

	milliseconds, err := strconv.Atoi(secondParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds: %w", err)
	}

	duration := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(milliseconds)*time.Millisecond

	return duration, nil
}

// VTTFile serves a transcript from a WebVTT file on disk instead of YouTube.
type VTTFile struct {
	Path string
}

func (f VTTFile) Segments(_ context.Context, videoID string, _ []string) ([]models.Segment, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, newFetchError(KindUnknown, videoID, fmt.Errorf("read %s: %w", f.Path, err))
	}
	segments, err := ParseVTT(string(data))
	if err != nil {
		return nil, newFetchError(KindUnknown, videoID, err)
	}
	if len(segments) == 0 {
		return nil, newFetchError(KindNoTranscriptFound, videoID, fmt.Errorf("%s has no cues", f.Path))
	}
	return segments, nil
}

func (f VTTFile) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	segments, err := f.Segments(ctx, videoID, languages)
	if err != nil {
		return "", err
	}
	return Join(segments), nil
}
