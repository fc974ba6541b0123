package media

import (
	"context"
	"time"

	"tubeconv/internal/domain/media"
)

const defaultRetentionInterval = 10 * time.Minute

// StartRetention periodically deletes artifacts older than ttl.
// A non-positive ttl keeps files forever.
func (s *Service) StartRetention(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = defaultRetentionInterval
	}

	s.retentionOnce.Do(func() {
		s.logger.Info("retention enabled", "ttl", ttl.String(), "interval", interval.String())
		go s.runRetention(ctx, ttl, interval)
	})
}

func (s *Service) runRetention(ctx context.Context, ttl, interval time.Duration) {
	s.SweepExpired(time.Now(), ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.SweepExpired(now, ttl)
		}
	}
}

// SweepExpired removes artifacts last modified before now-ttl, skipping files
// that belong to a running job. It returns the number of files removed.
func (s *Service) SweepExpired(now time.Time, ttl time.Duration) int {
	artifacts, err := s.store.ListArtifacts()
	if err != nil {
		s.logger.Warn("retention scan failed", "error", err)
		return 0
	}

	cutoff := now.Add(-ttl)
	removed := 0
	for _, artifact := range artifacts {
		if !artifact.ModifiedAt.Before(cutoff) {
			continue
		}
		if s.jobs.IsRunning(media.JobIDFromName(artifact.Name)) {
			continue
		}
		if err := s.store.Remove(artifact.Path); err != nil {
			s.logger.Warn("retention delete failed", "path", artifact.Path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("retention sweep finished", "removed", removed)
	}
	return removed
}
