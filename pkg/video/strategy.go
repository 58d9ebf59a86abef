package video

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/storage"
)

// RenderMode records which strategy produced a video artifact.
type RenderMode string

const (
	ModeColorTrack  RenderMode = "color_track"
	ModeStillImage  RenderMode = "still_image"
	ModeAudioCopy   RenderMode = "audio_copy"
	ModePlaceholder RenderMode = "placeholder"
)

// Degraded reports whether artifacts of this mode are not real videos.
func (m RenderMode) Degraded() bool {
	return m == ModeAudioCopy || m == ModePlaceholder
}

const (
	frameSize         = "320x240"
	colorTrackTimeout = 15 * time.Second
	stillImageTimeout = 10 * time.Second
	placeholderBody   = "This is a placeholder video file"
)

// Strategy turns an audio file into a video artifact at out.
type Strategy interface {
	Mode() RenderMode
	Render(ctx context.Context, audioPath, out string) error
}

// ColorTrack muxes the audio over a solid black track.
type ColorTrack struct {
	FFmpeg  string
	Runner  CommandRunner
	Timeout time.Duration
}

func (s ColorTrack) Mode() RenderMode { return ModeColorTrack }

func (s ColorTrack) Render(ctx context.Context, audioPath, out string) error {
	args := []string{
		"-y",
		"-i", audioPath,
		"-f", "lavfi", "-i", "color=c=black:s=" + frameSize,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-shortest",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		out,
	}
	return runBounded(ctx, s.Runner, s.Timeout, s.FFmpeg, args)
}

// StillImage loops a generated black frame under the audio.
type StillImage struct {
	FFmpeg  string
	Runner  CommandRunner
	Timeout time.Duration
}

func (s StillImage) Mode() RenderMode { return ModeStillImage }

func (s StillImage) Render(ctx context.Context, audioPath, out string) error {
	frame := strings.TrimSuffix(out, filepath.Ext(out)) + "_frame.png"
	if err := writeBlackFrame(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	defer os.Remove(frame)

	args := []string{
		"-y",
		"-loop", "1", "-i", frame,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-shortest",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		out,
	}
	return runBounded(ctx, s.Runner, s.Timeout, s.FFmpeg, args)
}

// AudioCopy stores the raw audio under the video name. The result does not
// contain a video stream.
type AudioCopy struct{}

func (AudioCopy) Mode() RenderMode { return ModeAudioCopy }

func (AudioCopy) Render(_ context.Context, audioPath, out string) error {
	return storage.CopyFile(audioPath, out)
}

// Placeholder writes a non-playable marker file.
type Placeholder struct{}

func (Placeholder) Mode() RenderMode { return ModePlaceholder }

func (Placeholder) Render(_ context.Context, _, out string) error {
	return os.WriteFile(out, []byte(placeholderBody), 0o644)
}

func runBounded(ctx context.Context, runner CommandRunner, timeout time.Duration, name string, args []string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := runner.Run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg execution: %w - %s", err, tail(string(out), 512))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func writeBlackFrame(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
