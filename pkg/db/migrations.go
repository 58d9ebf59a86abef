package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// schema uses {{id}} and {{ts}} for the column types that differ per driver.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                   {{id}} PRIMARY KEY,
	email                VARCHAR(255) NOT NULL UNIQUE,
	username             VARCHAR(100) NOT NULL UNIQUE,
	password_hash        VARCHAR(255) NOT NULL,
	full_name            VARCHAR(200),
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	is_verified          BOOLEAN NOT NULL DEFAULT FALSE,
	subscription_tier    VARCHAR(50) NOT NULL DEFAULT 'free',
	subscription_expires {{ts}},
	avatar_url           VARCHAR(500),
	bio                  TEXT,
	company              VARCHAR(200),
	website              VARCHAR(500),
	created_at           {{ts}} NOT NULL,
	updated_at           {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS avatars (
	id          {{id}} PRIMARY KEY,
	name        VARCHAR(200) NOT NULL,
	description TEXT,
	image_path  VARCHAR(500) NOT NULL,
	video_path  VARCHAR(500),
	category    VARCHAR(100),
	gender      VARCHAR(20),
	age_range   VARCHAR(50),
	ethnicity   VARCHAR(100),
	ai_model_id VARCHAR(200),
	is_public   BOOLEAN NOT NULL DEFAULT TRUE,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	usage_count BIGINT NOT NULL DEFAULT 0 CHECK (usage_count >= 0),
	rating      INTEGER NOT NULL DEFAULT 0,
	created_at  {{ts}} NOT NULL,
	updated_at  {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS videos (
	id                {{id}} PRIMARY KEY,
	user_id           {{id}} NOT NULL REFERENCES users(id),
	title             VARCHAR(200) NOT NULL,
	description       TEXT,
	script            TEXT NOT NULL,
	avatar_id         {{id}} REFERENCES avatars(id),
	voice_id          VARCHAR(100),
	language          VARCHAR(10) NOT NULL DEFAULT 'en',
	output_video_path VARCHAR(500),
	thumbnail_path    VARCHAR(500),
	duration          DOUBLE PRECISION,
	resolution        VARCHAR(20),
	file_size         BIGINT,
	format            VARCHAR(10) NOT NULL DEFAULT 'mp4',
	render_mode       VARCHAR(20),
	status            VARCHAR(20) NOT NULL DEFAULT 'pending',
	progress          DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message     TEXT,
	created_at        {{ts}} NOT NULL,
	updated_at        {{ts}} NOT NULL,
	completed_at      {{ts}}
);

CREATE INDEX IF NOT EXISTS idx_videos_user_status ON videos(user_id, status);

CREATE TABLE IF NOT EXISTS subscriptions (
	id               {{id}} PRIMARY KEY,
	user_id          {{id}} NOT NULL REFERENCES users(id),
	plan_type        VARCHAR(50) NOT NULL,
	status           VARCHAR(50) NOT NULL DEFAULT 'active',
	amount           DOUBLE PRECISION NOT NULL,
	currency         VARCHAR(3) NOT NULL DEFAULT 'USD',
	billing_cycle    VARCHAR(20),
	start_date       {{ts}} NOT NULL,
	end_date         {{ts}},
	cancelled_at     {{ts}},
	video_limit      INTEGER,
	storage_limit    INTEGER,
	resolution_limit VARCHAR(20),
	created_at       {{ts}} NOT NULL,
	updated_at       {{ts}} NOT NULL
);
`

// SchemaFor renders the schema for the given driver.
func SchemaFor(driver string) string {
	idType, tsType := "UUID", "TIMESTAMPTZ"
	if driver == DriverSQLite {
		idType, tsType = "TEXT", "TIMESTAMP"
	}
	return strings.NewReplacer("{{id}}", idType, "{{ts}}", tsType).Replace(schema)
}

// Migrate creates any missing tables. It is idempotent.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	for _, stmt := range strings.Split(SchemaFor(conn.DriverName()), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	log.Info("Database schema is up to date.")
	return nil
}
