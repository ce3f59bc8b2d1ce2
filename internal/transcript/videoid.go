package transcript

import (
	"errors"
	"net/url"
	"strings"
)

var errEmptyVideoID = errors.New("video ID is empty")

// ExtractVideoID returns the video ID for either a bare ID or a YouTube link.
// Supported links: watch?v=, youtu.be/, /shorts/, /embed/ and /live/.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errEmptyVideoID
	}
	if !strings.Contains(input, "/") && !strings.Contains(input, "?") {
		return input, nil
	}

	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}

	path := strings.Trim(u.Path, "/")
	if strings.HasSuffix(u.Hostname(), "youtu.be") && path != "" {
		return strings.SplitN(path, "/", 2)[0], nil
	}
	for _, prefix := range []string{"shorts/", "embed/", "live/", "v/"} {
		if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" {
			return strings.SplitN(rest, "/", 2)[0], nil
		}
	}
	return "", errors.New("no video ID in URL " + input)
}
