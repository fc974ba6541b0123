package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	AudioBitrate    = "192k"
	AudioSampleRate = "44100"

	VideoScale        = "scale='min(1280,iw)':-2"
	VideoCodec        = "libx264"
	VideoPreset       = "veryfast"
	VideoCRF          = "23"
	VideoAudioCodec   = "aac"
	VideoAudioBitrate = "128k"
)

// Converter wraps ffmpeg calls with the two fixed output profiles.
type Converter struct {
	Binary string
}

// NewConverter creates an ffmpeg adapter. An empty binary falls back to "ffmpeg".
func NewConverter(binary string) *Converter {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Converter{Binary: binary}
}

// ExtractAudio drops the video stream and writes a constant-bitrate MP3.
func (c *Converter) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	return c.transcode(ctx, outputPath, func(tmpPath string) []string {
		return AudioArgs(inputPath, tmpPath)
	})
}

// EncodeVideo writes an H.264/AAC MP4 no wider than 1280px.
func (c *Converter) EncodeVideo(ctx context.Context, inputPath, outputPath string) error {
	return c.transcode(ctx, outputPath, func(tmpPath string) []string {
		return VideoArgs(inputPath, tmpPath)
	})
}

// AudioArgs builds the ffmpeg argument list for the audio profile.
func AudioArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ab", AudioBitrate,
		"-ar", AudioSampleRate,
		outputPath,
	}
}

// VideoArgs builds the ffmpeg argument list for the video profile.
func VideoArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vf", VideoScale,
		"-c:v", VideoCodec,
		"-preset", VideoPreset,
		"-crf", VideoCRF,
		"-c:a", VideoAudioCodec,
		"-b:a", VideoAudioBitrate,
		outputPath,
	}
}

// transcode writes into a temporary sibling and renames it onto outputPath
// only after ffmpeg exits cleanly.
func (c *Converter) transcode(ctx context.Context, outputPath string, buildArgs func(tmpPath string) []string) error {
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	tmpPath := outputPath + ".tmp" + filepath.Ext(outputPath)
	_ = os.Remove(tmpPath)

	if err := run(ctx, c.Binary, buildArgs(tmpPath)...); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	_ = os.Remove(outputPath)
	return os.Rename(tmpPath, outputPath)
}

func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\nstdout: %s\nstderr: %s",
			name, err, strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()))
	}
	return nil
}
