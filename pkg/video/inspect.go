package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const probeTimeout = 10 * time.Second

// Metadata describes a finished artifact.
type Metadata struct {
	Duration   float64
	Size       int64
	Resolution string
}

// Inspector reads artifact metadata with ffprobe.
type Inspector struct {
	runner     CommandRunner
	candidates []string
}

func NewInspector(runner CommandRunner, ffprobeCandidates []string) *Inspector {
	return &Inspector{runner: runner, candidates: ffprobeCandidates}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Inspect returns the duration, size and, for files with a video stream, the
// resolution of path.
func (i *Inspector) Inspect(ctx context.Context, path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, err
	}
	ffprobe, err := Locate(ctx, i.runner, i.candidates)
	if err != nil {
		return Metadata{Size: info.Size()}, err
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := i.runner.Run(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,width,height",
		"-of", "json",
		path,
	)
	if err != nil {
		return Metadata{Size: info.Size()}, fmt.Errorf("ffprobe: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return Metadata{Size: info.Size()}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return Metadata{Size: info.Size()}, errors.New("ffprobe reported no duration")
	}

	meta := Metadata{Duration: duration, Size: info.Size()}
	for _, s := range probe.Streams {
		if s.CodecType == "video" && s.Width > 0 {
			meta.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
			break
		}
	}
	return meta, nil
}
