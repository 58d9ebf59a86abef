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

const userColumns = `id, email, username, password_hash, full_name, is_active, is_verified,
	subscription_tier, subscription_expires, avatar_url, bio, company, website, created_at, updated_at`

// CreateUser inserts a new user. ID, timestamps and defaults are filled in here.
func (s *Store) CreateUser(ctx context.Context, user *db.User) (*db.User, error) {
	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = "free"
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :username, :password_hash, :full_name, :is_active, :is_verified,
			:subscription_tier, :subscription_expires, :avatar_url, :bio, :company, :website, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		log.Errorf("Error creating user: %v", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Infof("User %s created with ID: %s", user.Email, user.ID.String())
	return user, nil
}

func (s *Store) findUser(ctx context.Context, column string, value interface{}) (*db.User, error) {
	user := &db.User{}
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	if err := s.db.GetContext(ctx, user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("User with %s '%v' not found.", column, value)
			return nil, nil
		}
		log.Errorf("Error finding user by %s '%v': %v", column, value, err)
		return nil, err
	}
	return user, nil
}

// FindUserByEmail returns (nil, nil) when no user has that email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*db.User, error) {
	return s.findUser(ctx, "email", email)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*db.User, error) {
	return s.findUser(ctx, "username", username)
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return s.findUser(ctx, "id", id)
}

// UpdateUserProfile writes the editable profile fields of an account.
func (s *Store) UpdateUserProfile(ctx context.Context, user *db.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET full_name = :full_name, avatar_url = :avatar_url, bio = :bio,
			company = :company, website = :website, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		log.Errorf("Error updating user with ID '%s': %v", user.ID.String(), err)
		return err
	}

	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		log.Warnf("No user found with ID '%s' for update.", user.ID.String())
		return sql.ErrNoRows
	}

	log.Infof("User with ID '%s' updated.", user.ID.String())
	return nil
}
