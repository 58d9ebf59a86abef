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

const subscriptionColumns = `id, user_id, plan_type, status, amount, currency, billing_cycle, start_date,
	end_date, cancelled_at, video_limit, storage_limit, resolution_limit, created_at, updated_at`

func (s *Store) CreateSubscription(ctx context.Context, sub *db.Subscription) (*db.Subscription, error) {
	now := time.Now().UTC()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Status == "" {
		sub.Status = "active"
	}
	if sub.Currency == "" {
		sub.Currency = "USD"
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (:id, :user_id, :plan_type, :status, :amount, :currency, :billing_cycle, :start_date,
			:end_date, :cancelled_at, :video_limit, :storage_limit, :resolution_limit, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, query, sub); err != nil {
		log.Errorf("Error creating subscription for user '%s': %v", sub.UserID.String(), err)
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

// FindActiveSubscription returns the most recent active subscription that has
// not ended, or (nil, nil).
func (s *Store) FindActiveSubscription(ctx context.Context, userID uuid.UUID) (*db.Subscription, error) {
	sub := &db.Subscription{}
	query := s.db.Rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = ? AND status = ? AND (end_date IS NULL OR end_date > ?)
		ORDER BY start_date DESC LIMIT 1`)
	if err := s.db.GetContext(ctx, sub, query, userID, "active", time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("Error finding subscription for user '%s': %v", userID.String(), err)
		return nil, fmt.Errorf("error finding subscription: %w", err)
	}
	return sub, nil
}
