package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/db/queries"
	"github.com/ASHISH26940/vidface-api/pkg/voice"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// NominalDuration is recorded when an artifact cannot be inspected.
const NominalDuration = 10.0

const (
	progressStarted      = 0.1
	progressSpeechReady  = 0.4
	progressRendered     = 0.7
	terminalWriteTimeout = 10 * time.Second
)

// JobStore is the subset of the store the pipeline writes through.
type JobStore interface {
	FindVideoByID(ctx context.Context, id uuid.UUID) (*db.Video, error)
	MarkVideoProcessing(ctx context.Context, id uuid.UUID, progress float64) error
	UpdateVideoProgress(ctx context.Context, id uuid.UUID, progress float64) error
	CompleteVideo(ctx context.Context, id uuid.UUID, res queries.VideoResult) error
	FailVideo(ctx context.Context, id uuid.UUID, message string) error
}

type Speaker interface {
	Synthesize(ctx context.Context, req voice.Request) (string, error)
}

type Renderer interface {
	Assemble(ctx context.Context, audioPath, videoID string) (Artifact, error)
}

type MetadataReader interface {
	Inspect(ctx context.Context, path string) (Metadata, error)
}

// ArtifactStore moves a rendered file to its durable location.
type ArtifactStore interface {
	Place(src string, videoID uuid.UUID) (string, error)
}

// Mirror copies a placed artifact to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, path string, videoID uuid.UUID) error
}

// Pipeline drives one video from pending to a terminal state.
type Pipeline struct {
	store     JobStore
	speech    Speaker
	renderer  Renderer
	inspector MetadataReader
	artifacts ArtifactStore
	mirror    Mirror
}

func NewPipeline(store JobStore, speech Speaker, renderer Renderer, inspector MetadataReader, artifacts ArtifactStore) *Pipeline {
	return &Pipeline{store: store, speech: speech, renderer: renderer, inspector: inspector, artifacts: artifacts}
}

// WithMirror enables uploads of completed artifacts.
func (p *Pipeline) WithMirror(m Mirror) *Pipeline {
	p.mirror = m
	return p
}

// Run generates the video. Every path out of Run leaves a job it could
// claim completed or failed, including panics and store errors before the
// job entered processing.
func (p *Pipeline) Run(ctx context.Context, videoID uuid.UUID) (err error) {
	logger := log.WithField("video_id", videoID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during generation: %v", r)
			logger.Errorf("Pipeline panicked: %v", r)
			p.fail(ctx, videoID, err.Error())
		}
	}()

	video, err := p.store.FindVideoByID(ctx, videoID)
	if err != nil {
		err = fmt.Errorf("load video: %w", err)
		logger.Errorf("Video generation could not start: %v", err)
		p.fail(ctx, videoID, err.Error())
		return err
	}
	if video == nil {
		logger.Warn("Video disappeared before generation started.")
		return nil
	}
	logger = logger.WithField("user_id", video.UserID)

	if err := p.store.MarkVideoProcessing(ctx, videoID, progressStarted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warnf("Video is no longer pending (status %s), skipping.", video.Status)
			return nil
		}
		err = fmt.Errorf("mark processing: %w", err)
		logger.Errorf("Video generation could not start: %v", err)
		p.fail(ctx, videoID, err.Error())
		return err
	}

	if err := p.generate(ctx, video, logger); err != nil {
		logger.Errorf("Video generation failed: %v", err)
		p.fail(ctx, videoID, err.Error())
		return err
	}
	return nil
}

func (p *Pipeline) generate(ctx context.Context, video *db.Video, logger *log.Entry) error {
	language := video.Language
	if language == "" {
		language = "en"
	}
	audioPath, err := p.speech.Synthesize(ctx, voice.Request{
		Text:     video.Script,
		VoiceID:  video.VoiceID.String,
		Language: language,
	})
	if err != nil {
		return err
	}
	p.progress(ctx, video.ID, progressSpeechReady, logger)

	artifact, err := p.renderer.Assemble(ctx, audioPath, video.ID.String())
	if err != nil {
		return err
	}
	p.progress(ctx, video.ID, progressRendered, logger)

	finalPath, err := p.artifacts.Place(artifact.Path, video.ID)
	if err != nil {
		logger.Warnf("Could not relocate artifact, keeping %s: %v", artifact.Path, err)
		finalPath = artifact.Path
	} else if finalPath != artifact.Path {
		_ = os.Remove(artifact.Path)
	}

	meta, err := p.inspector.Inspect(ctx, finalPath)
	if err != nil {
		logger.Warnf("Could not read artifact metadata, using nominal values: %v", err)
		meta.Duration = NominalDuration
		meta.Size = 0
		if info, statErr := os.Stat(finalPath); statErr == nil {
			meta.Size = info.Size()
		}
	}

	if p.mirror != nil {
		if err := p.mirror.Upload(ctx, finalPath, video.ID); err != nil {
			logger.Warnf("Object storage upload failed: %v", err)
		}
	}

	res := queries.VideoResult{
		OutputPath: finalPath,
		Duration:   meta.Duration,
		FileSize:   meta.Size,
		Resolution: meta.Resolution,
		Format:     strings.TrimPrefix(filepath.Ext(finalPath), "."),
		RenderMode: string(artifact.Mode),
	}
	if err := p.store.CompleteVideo(ctx, video.ID, res); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	logger.WithField("render_mode", artifact.Mode).Infof("Video generated: %s", finalPath)
	return nil
}

func (p *Pipeline) progress(ctx context.Context, id uuid.UUID, value float64, logger *log.Entry) {
	if err := p.store.UpdateVideoProgress(ctx, id, value); err != nil {
		logger.Warnf("Failed to update progress to %.1f: %v", value, err)
	}
}

// fail commits the failed state even when ctx is already cancelled.
func (p *Pipeline) fail(ctx context.Context, id uuid.UUID, message string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	if err := p.store.FailVideo(ctx, id, message); err != nil {
		log.WithField("video_id", id).Errorf("Failed to mark video failed: %v", err)
	}
}
