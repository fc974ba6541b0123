// Package ytdlp adapts the yt-dlp program (via github.com/lrstanley/go-ytdlp)
// to the conversion pipeline's fetch step.
package ytdlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// Fetcher downloads a single media item with yt-dlp.
type Fetcher struct {
	Binary string
}

// NewFetcher creates a fetcher. An empty binary uses yt-dlp from PATH.
func NewFetcher(binary string) *Fetcher {
	return &Fetcher{Binary: strings.TrimSpace(binary)}
}

// Fetch downloads rawURL into outputTemplate and returns the filename yt-dlp
// reported, or an empty string when it did not report one.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, outputTemplate string) (string, error) {
	dl := ytdlp.New().
		NoPlaylist().
		PrintJSON().
		NoSimulate().
		Output(outputTemplate)
	if f.Binary != "" {
		dl.SetExecutable(f.Binary)
	}

	result, err := dl.Run(ctx, rawURL)
	if err != nil {
		return "", describeFailure(err, result)
	}

	return reportedFilename(result), nil
}

func reportedFilename(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return ""
	}
	if info[0].Filename != nil {
		return *info[0].Filename
	}
	return ""
}

// describeFailure appends stdout to err. go-ytdlp's exit error already
// carries stderr.
func describeFailure(err error, result *ytdlp.Result) error {
	if result == nil {
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	stdout := strings.TrimSpace(result.Stdout)
	if stdout == "" {
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return fmt.Errorf("yt-dlp failed: %w\nstdout: %s", err, stdout)
}
