package media

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var youtubePattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([A-Za-z0-9_-]{11})`)

// ParseFormat validates a requested output format.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatMP3:
		return FormatMP3, nil
	case FormatMP4:
		return FormatMP4, nil
	default:
		return "", ErrInvalidFormat
	}
}

// ValidateSourceURL checks that raw is an absolute http(s) URL with a host.
func ValidateSourceURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrInvalidURL
	}
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return "", ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if parsed.Host == "" {
		return "", ErrInvalidURL
	}
	return parsed.String(), nil
}

// YouTubeVideoID extracts the 11-character video id from a watch or youtu.be URL.
func YouTubeVideoID(raw string) (string, bool) {
	match := youtubePattern.FindStringSubmatch(raw)
	if len(match) != 2 {
		return "", false
	}
	return match[1], true
}

// IsYouTubeURL reports whether raw points at a single YouTube video.
func IsYouTubeURL(raw string) bool {
	_, ok := YouTubeVideoID(raw)
	return ok
}

// NormalizeFileName reduces a requested download name to its final path component.
func NormalizeFileName(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	value = strings.ReplaceAll(value, "\\", "/")
	name := path.Base(value)
	if value == "" || name == "" || name == "." || name == ".." || name == "/" {
		return "", ErrFileNotFound
	}
	return name, nil
}

// JobIDFromName returns the job id prefix of a stored artifact name.
func JobIDFromName(name string) string {
	if idx := strings.Index(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}
