package media

import "time"

// Artifact represents a file in the storage directory.
type Artifact struct {
	Name       string
	Path       string
	Size       int64
	ModifiedAt time.Time
}
