package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tubeconv/internal/domain/media"
)

// Options tunes the pipeline. The zero value matches an unbounded,
// deadline-free pipeline with no mirror.
type Options struct {
	MaxConcurrent int
	JobTimeout    time.Duration
	YouTubeOnly   bool
	Mirror        Mirror
}

// Service runs conversion jobs and resolves finished artifacts for delivery.
type Service struct {
	store      ArtifactStore
	fetcher    Fetcher
	transcoder Transcoder
	mirror     Mirror
	logger     *slog.Logger
	jobs       *jobRegistry

	slots       chan struct{}
	jobTimeout  time.Duration
	youtubeOnly bool
	newID       func() string

	retentionOnce sync.Once
}

// NewService creates a media use-case service with injected ports.
func NewService(store ArtifactStore, fetcher Fetcher, transcoder Transcoder, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		store:       store,
		fetcher:     fetcher,
		transcoder:  transcoder,
		mirror:      opts.Mirror,
		logger:      logger,
		jobs:        newJobRegistry(),
		jobTimeout:  opts.JobTimeout,
		youtubeOnly: opts.YouTubeOnly,
		newID:       uuid.NewString,
	}
	if opts.MaxConcurrent > 0 {
		svc.slots = make(chan struct{}, opts.MaxConcurrent)
	}
	return svc
}

// Convert fetches rawURL, transcodes it into rawFormat and returns the path
// of the finished file inside the storage directory.
func (s *Service) Convert(ctx context.Context, rawURL, rawFormat string) (string, error) {
	format, err := media.ParseFormat(rawFormat)
	if err != nil {
		return "", err
	}
	sourceURL, err := media.ValidateSourceURL(rawURL)
	if err != nil {
		return "", err
	}
	if s.youtubeOnly && !media.IsYouTubeURL(sourceURL) {
		return "", fmt.Errorf("%w: only YouTube video links are accepted", media.ErrInvalidURL)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	job := media.NewJob(s.newID(), sourceURL, format, s.store.Root())
	s.jobs.Start(job.ID)
	defer s.jobs.Finish(job.ID)

	logger := s.logger.With("job_id", job.ID, "format", string(format))
	logger.Info("conversion started", "url", sourceURL)

	if err := s.run(ctx, job, logger); err != nil {
		failedAt := job.State
		s.transition(job, media.StateFailed, logger)
		logger.Error("conversion failed", "step", string(failedAt), "error", err)
		return "", err
	}

	logger.Info("conversion finished", "file", filepath.Base(job.FinalPath), "duration", time.Since(job.StartedAt).String())
	return job.FinalPath, nil
}

func (s *Service) run(ctx context.Context, job *media.ConversionJob, logger *slog.Logger) error {
	s.transition(job, media.StateFetching, logger)
	reported, err := s.fetcher.Fetch(ctx, job.SourceURL, job.OutputTemplate())
	if err != nil {
		return fmt.Errorf("%w: %w", media.ErrFetch, err)
	}

	downloaded, ok := s.locateDownload(job.ID, reported)
	if !ok {
		return fmt.Errorf("%w: downloaded artifact missing: %w", media.ErrFetch, media.ErrFileNotFound)
	}
	job.IntermediatePath = downloaded
	job.FinalPath = s.store.FinalPath(job)

	s.transition(job, media.StateTranscoding, logger)
	switch job.Format {
	case media.FormatMP3:
		err = s.transcoder.ExtractAudio(ctx, job.IntermediatePath, job.FinalPath)
	case media.FormatMP4:
		err = s.transcoder.EncodeVideo(ctx, job.IntermediatePath, job.FinalPath)
	default:
		return media.ErrInvalidFormat
	}
	if err != nil {
		return fmt.Errorf("%w: %w", media.ErrTranscode, err)
	}

	if job.IntermediatePath != job.FinalPath {
		if err := s.store.Remove(job.IntermediatePath); err != nil {
			logger.Warn("intermediate cleanup failed", "path", job.IntermediatePath, "error", err)
		}
	}

	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, job.FinalPath); err != nil {
			logger.Warn("mirror publish failed", "path", job.FinalPath, "error", err)
		}
	}

	s.transition(job, media.StateDone, logger)
	return nil
}

// locateDownload prefers the path the fetcher reported and falls back to a
// prefix scan of the storage directory.
func (s *Service) locateDownload(id, reported string) (string, bool) {
	reported = strings.TrimSpace(reported)
	if reported != "" {
		if !filepath.IsAbs(reported) {
			reported = filepath.Join(s.store.Root(), reported)
		}
		if strings.HasPrefix(filepath.Base(reported), id) && s.store.Exists(reported) {
			return reported, true
		}
	}
	return s.store.FindByPrefix(id)
}

func (s *Service) transition(job *media.ConversionJob, state media.JobState, logger *slog.Logger) {
	job.State = state
	s.jobs.Set(job.ID, state)
	logger.Debug("job state changed", "state", string(state))
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.slots == nil {
		return func() {}, nil
	}
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ResolveDownload maps a requested file name onto a stored artifact.
func (s *Service) ResolveDownload(name string) (string, error) {
	return s.store.Resolve(name)
}

// ActiveJobs returns the number of conversions currently running.
func (s *Service) ActiveJobs() int {
	return s.jobs.Count()
}
