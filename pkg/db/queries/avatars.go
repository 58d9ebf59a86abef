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

const avatarColumns = `id, name, description, image_path, video_path, category, gender, age_range,
	ethnicity, ai_model_id, is_public, is_active, usage_count, rating, created_at, updated_at`

// AvatarFilter narrows the public catalog listing.
type AvatarFilter struct {
	Category string
	Gender   string
	SortBy   string // "popular", "rating" or "newest"; empty keeps insertion order
	Limit    int
}

func (s *Store) CreateAvatar(ctx context.Context, avatar *db.Avatar) (*db.Avatar, error) {
	now := time.Now().UTC()
	if avatar.ID == uuid.Nil {
		avatar.ID = uuid.New()
	}
	avatar.CreatedAt = now
	avatar.UpdatedAt = now

	query := `
		INSERT INTO avatars (` + avatarColumns + `)
		VALUES (:id, :name, :description, :image_path, :video_path, :category, :gender, :age_range,
			:ethnicity, :ai_model_id, :is_public, :is_active, :usage_count, :rating, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, query, avatar); err != nil {
		log.Errorf("Error creating avatar: %v", err)
		return nil, fmt.Errorf("failed to create avatar: %w", err)
	}
	return avatar, nil
}

// ListAvatars returns active, public avatars matching the filter.
func (s *Store) ListAvatars(ctx context.Context, filter AvatarFilter) ([]db.Avatar, error) {
	query := `SELECT ` + avatarColumns + ` FROM avatars WHERE is_active = ? AND is_public = ?`
	args := []interface{}{true, true}

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Gender != "" {
		query += ` AND gender = ?`
		args = append(args, filter.Gender)
	}

	switch filter.SortBy {
	case "popular":
		query += ` ORDER BY usage_count DESC, created_at ASC`
	case "rating":
		query += ` ORDER BY rating DESC, created_at ASC`
	case "newest":
		query += ` ORDER BY created_at DESC`
	default:
		query += ` ORDER BY created_at ASC`
	}

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	avatars := []db.Avatar{}
	if err := s.db.SelectContext(ctx, &avatars, s.db.Rebind(query), args...); err != nil {
		log.Errorf("Error listing avatars: %v", err)
		return nil, fmt.Errorf("error listing avatars: %w", err)
	}
	return avatars, nil
}

// FindActiveAvatarByID returns (nil, nil) for unknown, inactive or private avatars.
func (s *Store) FindActiveAvatarByID(ctx context.Context, id uuid.UUID) (*db.Avatar, error) {
	avatar := &db.Avatar{}
	query := s.db.Rebind(`SELECT ` + avatarColumns + ` FROM avatars WHERE id = ? AND is_active = ? AND is_public = ?`)
	if err := s.db.GetContext(ctx, avatar, query, id, true, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("Avatar with ID '%s' not found.", id.String())
			return nil, nil
		}
		log.Errorf("Error finding avatar by ID '%s': %v", id.String(), err)
		return nil, fmt.Errorf("error finding avatar by ID: %w", err)
	}
	return avatar, nil
}

func (s *Store) ListAvatarCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	query := s.db.Rebind(`
		SELECT DISTINCT category FROM avatars
		WHERE is_active = ? AND is_public = ? AND category IS NOT NULL
		ORDER BY category`)
	if err := s.db.SelectContext(ctx, &categories, query, true, true); err != nil {
		log.Errorf("Error listing avatar categories: %v", err)
		return nil, fmt.Errorf("error listing avatar categories: %w", err)
	}
	return categories, nil
}

func (s *Store) ListPopularAvatars(ctx context.Context, limit int) ([]db.Avatar, error) {
	return s.ListAvatars(ctx, AvatarFilter{SortBy: "popular", Limit: limit})
}

// ListFeaturedAvatars returns highly rated (>= 4) avatars, best first.
func (s *Store) ListFeaturedAvatars(ctx context.Context, limit int) ([]db.Avatar, error) {
	avatars := []db.Avatar{}
	query := s.db.Rebind(`SELECT ` + avatarColumns + ` FROM avatars
		WHERE is_active = ? AND is_public = ? AND rating >= ?
		ORDER BY rating DESC, usage_count DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &avatars, query, true, true, 4, limit); err != nil {
		log.Errorf("Error listing featured avatars: %v", err)
		return nil, fmt.Errorf("error listing featured avatars: %w", err)
	}
	return avatars, nil
}

// IncrementAvatarUsage bumps the usage counter by one; it never decreases.
func (s *Store) IncrementAvatarUsage(ctx context.Context, id uuid.UUID) error {
	query := s.db.Rebind(`UPDATE avatars SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		log.Errorf("Error incrementing usage for avatar '%s': %v", id.String(), err)
		return err
	}
	return nil
}

// CountAvatars is used by the seed command to avoid duplicating the catalog.
func (s *Store) CountAvatars(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM avatars`); err != nil {
		return 0, err
	}
	return n, nil
}
