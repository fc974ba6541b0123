package media

import (
	"path/filepath"
	"time"
)

// Format is the requested output container.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatMP4 Format = "mp4"
)

// Ext returns the file extension produced for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// JobState describes where a conversion job is in its pipeline.
type JobState string

const (
	StatePending     JobState = "pending"
	StateFetching    JobState = "fetching"
	StateTranscoding JobState = "transcoding"
	StateDone        JobState = "done"
	StateFailed      JobState = "failed"
)

// ConversionJob is one request's fetch-then-transcode unit of work.
// It lives only for the duration of the request.
type ConversionJob struct {
	ID               string
	SourceURL        string
	Format           Format
	Dir              string
	IntermediatePath string
	FinalPath        string
	State            JobState
	StartedAt        time.Time
}

// NewJob creates a pending job rooted at dir.
func NewJob(id, sourceURL string, format Format, dir string) *ConversionJob {
	return &ConversionJob{
		ID:        id,
		SourceURL: sourceURL,
		Format:    format,
		Dir:       dir,
		State:     StatePending,
		StartedAt: time.Now(),
	}
}

// FinalName is the file name the job delivers to the client.
func (j *ConversionJob) FinalName() string {
	return j.ID + j.Format.Ext()
}

// OutputTemplate is the fetcher output template. The fetcher picks the extension.
func (j *ConversionJob) OutputTemplate() string {
	return filepath.Join(j.Dir, j.ID+".%(ext)s")
}
