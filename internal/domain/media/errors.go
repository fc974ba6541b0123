package media

import "errors"

var (
	ErrInvalidFormat = errors.New("invalid format, use mp3 or mp4")
	ErrInvalidURL    = errors.New("invalid url")
	ErrFetch         = errors.New("fetch failed")
	ErrTranscode     = errors.New("transcode failed")
	ErrFileNotFound  = errors.New("file not found")
)
