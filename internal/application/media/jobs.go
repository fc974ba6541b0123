package media

import (
	"sync"

	"tubeconv/internal/domain/media"
)

// jobRegistry tracks in-flight jobs only; entries disappear when a job ends.
type jobRegistry struct {
	mu   sync.Mutex
	jobs map[string]media.JobState
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]media.JobState)}
}

func (j *jobRegistry) Start(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[id] = media.StatePending
}

func (j *jobRegistry) Set(id string, state media.JobState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.jobs[id]; ok {
		j.jobs[id] = state
	}
}

func (j *jobRegistry) Finish(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.jobs, id)
}

func (j *jobRegistry) IsRunning(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.jobs[id]
	return ok
}

func (j *jobRegistry) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.jobs)
}
