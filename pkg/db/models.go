package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the lifecycle state of a video-generation job.
type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

// Valid reports whether s is one of the four lifecycle states.
func (s VideoStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition can happen from s.
func (s VideoStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type User struct {
	ID                  uuid.UUID      `db:"id"`
	Email               string         `db:"email"`
	Username            string         `db:"username"`
	PasswordHash        string         `db:"password_hash"`
	FullName            sql.NullString `db:"full_name"`
	IsActive            bool           `db:"is_active"`
	IsVerified          bool           `db:"is_verified"`
	SubscriptionTier    string         `db:"subscription_tier"`
	SubscriptionExpires sql.NullTime   `db:"subscription_expires"`
	AvatarURL           sql.NullString `db:"avatar_url"`
	Bio                 sql.NullString `db:"bio"`
	Company             sql.NullString `db:"company"`
	Website             sql.NullString `db:"website"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

type Avatar struct {
	ID          uuid.UUID      `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	ImagePath   string         `db:"image_path"`
	VideoPath   sql.NullString `db:"video_path"` // reference video
	Category    sql.NullString `db:"category"`
	Gender      sql.NullString `db:"gender"`
	AgeRange    sql.NullString `db:"age_range"`
	Ethnicity   sql.NullString `db:"ethnicity"`
	AIModelID   sql.NullString `db:"ai_model_id"`
	IsPublic    bool           `db:"is_public"`
	IsActive    bool           `db:"is_active"`
	UsageCount  int64          `db:"usage_count"`
	Rating      int            `db:"rating"` // 1-5, 0 when unrated
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Video is a video-generation job and, once completed, its artifact metadata.
type Video struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	Title         string          `db:"title"`
	Description   sql.NullString  `db:"description"`
	Script        string          `db:"script"`
	AvatarID      uuid.NullUUID   `db:"avatar_id"`
	VoiceID       sql.NullString  `db:"voice_id"`
	Language      string          `db:"language"`
	OutputPath    sql.NullString  `db:"output_video_path"`
	ThumbnailPath sql.NullString  `db:"thumbnail_path"`
	Duration      sql.NullFloat64 `db:"duration"`
	Resolution    sql.NullString  `db:"resolution"`
	FileSize      sql.NullInt64   `db:"file_size"`
	Format        string          `db:"format"`
	RenderMode    sql.NullString  `db:"render_mode"`
	Status        VideoStatus     `db:"status"`
	Progress      float64         `db:"progress"`
	ErrorMessage  sql.NullString  `db:"error_message"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	CompletedAt   sql.NullTime    `db:"completed_at"`
}

type Subscription struct {
	ID             uuid.UUID      `db:"id"`
	UserID         uuid.UUID      `db:"user_id"`
	PlanType       string         `db:"plan_type"` // free, pro, enterprise
	Status         string         `db:"status"`    // active, cancelled, expired
	Amount         float64        `db:"amount"`
	Currency       string         `db:"currency"`
	BillingCycle   sql.NullString `db:"billing_cycle"`
	StartDate      time.Time      `db:"start_date"`
	EndDate        sql.NullTime   `db:"end_date"`
	CancelledAt    sql.NullTime   `db:"cancelled_at"`
	VideoLimit     sql.NullInt64  `db:"video_limit"`   // -1 for unlimited
	StorageLimitMB sql.NullInt64  `db:"storage_limit"` // -1 for unlimited
	Resolution     sql.NullString `db:"resolution_limit"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}
