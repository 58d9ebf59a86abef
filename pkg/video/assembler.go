package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Artifact is the file a strategy produced and the strategy that produced it.
type Artifact struct {
	Path string
	Mode RenderMode
}

// Assembler turns narration audio into a video artifact, trying strategies
// from best to most degraded.
type Assembler struct {
	runner     CommandRunner
	candidates []string
	workDir    string
}

func NewAssembler(runner CommandRunner, ffmpegCandidates []string, workDir string) *Assembler {
	return &Assembler{runner: runner, candidates: ffmpegCandidates, workDir: workDir}
}

// Strategies returns the chain to try. The ffmpeg tiers are included only
// when a working ffmpeg is found.
func (a *Assembler) Strategies(ctx context.Context) []Strategy {
	var chain []Strategy
	if ffmpeg, err := Locate(ctx, a.runner, a.candidates); err == nil {
		chain = append(chain,
			ColorTrack{FFmpeg: ffmpeg, Runner: a.runner, Timeout: colorTrackTimeout},
			StillImage{FFmpeg: ffmpeg, Runner: a.runner, Timeout: stillImageTimeout},
		)
	} else {
		log.Warnf("ffmpeg unavailable, rendering degraded output: %v", err)
	}
	return append(chain, AudioCopy{}, Placeholder{})
}

// Assemble renders {workDir}/{videoID}.mp4 with the first strategy that
// succeeds.
func (a *Assembler) Assemble(ctx context.Context, audioPath, videoID string) (Artifact, error) {
	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create work dir: %w", err)
	}
	out := filepath.Join(a.workDir, videoID+".mp4")

	var errs []error
	for _, s := range a.Strategies(ctx) {
		logger := log.WithFields(log.Fields{"video_id": videoID, "strategy": s.Mode()})
		err := s.Render(ctx, audioPath, out)
		if err == nil {
			if _, statErr := os.Stat(out); statErr == nil {
				if s.Mode().Degraded() {
					logger.Warn("Rendered degraded artifact.")
				} else {
					logger.Debug("Rendered artifact.")
				}
				return Artifact{Path: out, Mode: s.Mode()}, nil
			}
			err = errors.New("no output written")
		}
		logger.Warnf("Render strategy failed: %v", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Mode(), err))
		_ = os.Remove(out)
	}
	return Artifact{}, fmt.Errorf("video file was not created: %w", errors.Join(errs...))
}
