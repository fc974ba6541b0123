package media

import (
	"context"

	mediadomain "tubeconv/internal/domain/media"
)

// ArtifactStore is an application port for the shared storage directory.
type ArtifactStore interface {
	Root() string
	FinalPath(job *mediadomain.ConversionJob) string
	Exists(path string) bool
	FindByPrefix(prefix string) (string, bool)
	Resolve(raw string) (string, error)
	Remove(path string) error
	ListArtifacts() ([]mediadomain.Artifact, error)
}

// Fetcher is an application port for the external download tool.
// It returns the path the tool reported writing, which may be empty or stale.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, outputTemplate string) (string, error)
}

// Transcoder is an application port for the external media transcoder.
type Transcoder interface {
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
	EncodeVideo(ctx context.Context, inputPath, outputPath string) error
}

// Mirror is an optional port that copies finished artifacts elsewhere.
type Mirror interface {
	Publish(ctx context.Context, localPath string) error
}
