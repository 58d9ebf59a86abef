package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const videoColumns = `id, user_id, title, description, script, avatar_id, voice_id, language,
	output_video_path, thumbnail_path, duration, resolution, file_size, format, render_mode,
	status, progress, error_message, created_at, updated_at, completed_at`

// VideoResult is what the pipeline records when a job completes.
type VideoResult struct {
	OutputPath string
	Duration   float64
	FileSize   int64
	Resolution string
	Format     string
	RenderMode string
}

// CreateVideo inserts a new job in the pending state with zero progress.
func (s *Store) CreateVideo(ctx context.Context, video *db.Video) (*db.Video, error) {
	now := time.Now().UTC()
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	if video.Language == "" {
		video.Language = "en"
	}
	if video.Format == "" {
		video.Format = "mp4"
	}
	video.Status = db.StatusPending
	video.Progress = 0
	video.OutputPath = sql.NullString{}
	video.ErrorMessage = sql.NullString{}
	video.CompletedAt = sql.NullTime{}
	video.CreatedAt = now
	video.UpdatedAt = now

	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES (:id, :user_id, :title, :description, :script, :avatar_id, :voice_id, :language,
			:output_video_path, :thumbnail_path, :duration, :resolution, :file_size, :format, :render_mode,
			:status, :progress, :error_message, :created_at, :updated_at, :completed_at)`

	if _, err := s.db.NamedExecContext(ctx, query, video); err != nil {
		log.Errorf("Error creating video: %v", err)
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	log.Infof("Video '%s' created for user ID: %s (ID: %s)", video.Title, video.UserID.String(), video.ID.String())
	return video, nil
}

// FindVideoByID is unscoped; only the pipeline uses it.
func (s *Store) FindVideoByID(ctx context.Context, id uuid.UUID) (*db.Video, error) {
	video := &db.Video{}
	query := s.db.Rebind(`SELECT ` + videoColumns + ` FROM videos WHERE id = ?`)
	if err := s.db.GetContext(ctx, video, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("Error finding video by ID '%s': %v", id.String(), err)
		return nil, fmt.Errorf("error finding video by ID: %w", err)
	}
	return video, nil
}

// FindUserVideo returns (nil, nil) when the video does not exist or belongs to
// another user, so callers cannot tell the two apart.
func (s *Store) FindUserVideo(ctx context.Context, id, userID uuid.UUID) (*db.Video, error) {
	video := &db.Video{}
	query := s.db.Rebind(`SELECT ` + videoColumns + ` FROM videos WHERE id = ? AND user_id = ?`)
	if err := s.db.GetContext(ctx, video, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("Video '%s' not found for user '%s'.", id.String(), userID.String())
			return nil, nil
		}
		log.Errorf("Error finding video '%s' for user '%s': %v", id.String(), userID.String(), err)
		return nil, fmt.Errorf("error finding video: %w", err)
	}
	return video, nil
}

// ListUserVideos pages through a user's videos, newest first.
func (s *Store) ListUserVideos(ctx context.Context, userID uuid.UUID, status db.VideoStatus, skip, limit int) ([]db.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	videos := []db.Video{}
	if err := s.db.SelectContext(ctx, &videos, s.db.Rebind(query), args...); err != nil {
		log.Errorf("Error listing videos for user '%s': %v", userID.String(), err)
		return nil, fmt.Errorf("error listing videos: %w", err)
	}
	return videos, nil
}

// UpdateVideoDetails writes the user-editable fields. It refuses (sql.ErrNoRows)
// when the video is missing, owned by someone else, or currently processing.
func (s *Store) UpdateVideoDetails(ctx context.Context, video *db.Video) error {
	video.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE videos
		SET title = :title, description = :description, script = :script, avatar_id = :avatar_id,
			voice_id = :voice_id, language = :language, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id AND status <> 'processing'`

	result, err := s.db.NamedExecContext(ctx, query, video)
	if err != nil {
		log.Errorf("Error updating video with ID '%s': %v", video.ID.String(), err)
		return fmt.Errorf("failed to update video: %w", err)
	}

	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		log.Warnf("No updatable video found with ID '%s' for user ID '%s'.", video.ID.String(), video.UserID.String())
		return sql.ErrNoRows
	}

	log.Infof("Video with ID '%s' updated.", video.ID.String())
	return nil
}

func (s *Store) DeleteUserVideo(ctx context.Context, id, userID uuid.UUID) error {
	query := s.db.Rebind(`DELETE FROM videos WHERE id = ? AND user_id = ?`)
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Errorf("Error deleting video with ID '%s' for user ID '%s': %v", id.String(), userID.String(), err)
		return err
	}

	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		log.Warnf("No video found with ID '%s' for user ID '%s' for deletion.", id.String(), userID.String())
		return sql.ErrNoRows
	}

	log.Infof("Video with ID '%s' deleted.", id.String())
	return nil
}

// CountUserVideosByStatus returns per-status counts; every status is present.
func (s *Store) CountUserVideosByStatus(ctx context.Context, userID uuid.UUID) (map[db.VideoStatus]int, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(`SELECT status, COUNT(*) FROM videos WHERE user_id = ? GROUP BY status`), userID)
	if err != nil {
		return nil, fmt.Errorf("error counting videos: %w", err)
	}
	defer rows.Close()

	out := map[db.VideoStatus]int{
		db.StatusPending:    0,
		db.StatusProcessing: 0,
		db.StatusCompleted:  0,
		db.StatusFailed:     0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[db.VideoStatus(status)] = n
	}
	return out, rows.Err()
}

// --- Pipeline state transitions ---
//
// Each transition is guarded by the source state so that the lifecycle
// pending -> processing -> {completed, failed} holds in the store even if a
// caller misbehaves. A transition that matches no row returns sql.ErrNoRows.

func (s *Store) transition(ctx context.Context, id uuid.UUID, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("video %s transition: %w", id.String(), err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkVideoProcessing moves a pending job to processing.
func (s *Store) MarkVideoProcessing(ctx context.Context, id uuid.UUID, progress float64) error {
	return s.transition(ctx, id, `
		UPDATE videos SET status = ?, progress = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		db.StatusProcessing, progress, time.Now().UTC(), id, db.StatusPending)
}

// UpdateVideoProgress raises the progress of a processing job. Progress never
// decreases and never reaches 1.0 before completion.
func (s *Store) UpdateVideoProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	if progress >= 1.0 {
		return fmt.Errorf("progress %.2f is reserved for completion", progress)
	}
	return s.transition(ctx, id, `
		UPDATE videos SET progress = ?, updated_at = ?
		WHERE id = ? AND status = ? AND progress < ?`,
		progress, time.Now().UTC(), id, db.StatusProcessing, progress)
}

// CompleteVideo records the artifact and moves a processing job to completed.
func (s *Store) CompleteVideo(ctx context.Context, id uuid.UUID, res VideoResult) error {
	now := time.Now().UTC()
	format := res.Format
	if format == "" {
		format = "mp4"
	}
	return s.transition(ctx, id, `
		UPDATE videos
		SET status = ?, progress = ?, output_video_path = ?, duration = ?, file_size = ?,
			resolution = ?, format = ?, render_mode = ?, error_message = NULL,
			completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		db.StatusCompleted, 1.0, res.OutputPath, res.Duration, res.FileSize,
		nullString(res.Resolution), format, nullString(res.RenderMode),
		now, now, id, db.StatusProcessing)
}

// FailVideo moves a non-terminal job to failed and clears any output path.
func (s *Store) FailVideo(ctx context.Context, id uuid.UUID, message string) error {
	if message == "" {
		message = "unknown error"
	}
	return s.transition(ctx, id, `
		UPDATE videos SET status = ?, error_message = ?, output_video_path = NULL, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		db.StatusFailed, message, time.Now().UTC(), id, db.StatusPending, db.StatusProcessing)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// FailInterruptedVideos fails every pending or processing job. It is meant for
// startup of a single instance, when no run can still be in flight.
func (s *Store) FailInterruptedVideos(ctx context.Context, message string) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE videos SET status = ?, error_message = ?, output_video_path = NULL, updated_at = ?
		WHERE status IN (?, ?)`),
		db.StatusFailed, message, time.Now().UTC(), db.StatusPending, db.StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted videos: %w", err)
	}
	return result.RowsAffected()
}
