package infra

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	thumbnailWidth  = 320
	thumbnailHeight = 180
	thumbnailJPEGQ  = 70

	// posterOffsetSeconds is where the poster frame is taken from.
	// Clips shorter than this are captured at their first frame.
	posterOffsetSeconds = 1.0
)

// ThumbnailClient extracts a single poster frame from a video file via
// ffmpeg. Generation failure is fatal to the upload attempt; there is
// no thumbnail-less fallback.
type ThumbnailClient struct {
	ffmpegPath string
	tempDir    string
}

func InitThumbnailClient() *ThumbnailClient {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		panic(fmt.Sprintf("ffmpeg not found in PATH: %v", err))
	}

	tempDir := filepath.Join(os.TempDir(), "cinevault-thumbs")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("Failed to create thumbnail temp directory: %v", err))
	}

	return &ThumbnailClient{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
	}
}

// Generate produces a 320x180 JPEG poster frame for the video at
// videoPath. Temp artifacts are removed on success and failure.
func (t *ThumbnailClient) Generate(ctx context.Context, videoPath string) ([]byte, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}

	offset := posterOffsetSeconds
	duration, err := t.probeDuration(ctx, videoPath)
	if err == nil && duration > 0 && duration <= posterOffsetSeconds {
		offset = 0
	}

	tempFile := filepath.Join(t.tempDir, fmt.Sprintf("poster_%s.jpg", uuid.New().String()))
	defer os.Remove(tempFile)

	args := []string{
		"-ss", fmt.Sprintf("%.2f", offset),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", thumbnailWidth, thumbnailHeight),
		"-f", "mjpeg",
		"-y",
		tempFile,
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to extract poster frame: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailJPEGQ}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return buf.Bytes(), nil
}

func (t *ThumbnailClient) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	// ffprobe gives the most reliable duration when available
	if ffprobePath, err := exec.LookPath("ffprobe"); err == nil {
		cmd := exec.CommandContext(ctx, ffprobePath,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			videoPath)

		var stdout bytes.Buffer
		cmd.Stdout = &stdout

		if err := cmd.Run(); err == nil {
			durationStr := strings.TrimSpace(stdout.String())
			if duration, err := strconv.ParseFloat(durationStr, 64); err == nil && duration > 0 {
				return duration, nil
			}
		}
	}

	// Fallback to parsing ffmpeg's own output
	cmd := exec.CommandContext(ctx, t.ffmpegPath, "-i", videoPath, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	output := stderr.String()
	durationPrefix := "Duration: "
	startIndex := strings.Index(output, durationPrefix)
	if startIndex == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}

	startIndex += len(durationPrefix)
	endIndex := strings.Index(output[startIndex:], ",")
	if endIndex == -1 {
		return 0, fmt.Errorf("invalid duration format")
	}

	parts := strings.Split(output[startIndex:startIndex+endIndex], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s", output[startIndex:startIndex+endIndex])
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}

	return hours*3600 + minutes*60 + seconds, nil
}

func (t *ThumbnailClient) Cleanup() error {
	return os.RemoveAll(t.tempDir)
}
