package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type UserResponse struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	Username            string  `json:"username"`
	FullName            *string `json:"full_name"`
	IsActive            bool    `json:"is_active"`
	IsVerified          bool    `json:"is_verified"`
	SubscriptionTier    string  `json:"subscription_tier"`
	SubscriptionExpires *string `json:"subscription_expires"`
	AvatarURL           *string `json:"avatar_url"`
	Bio                 *string `json:"bio"`
	Company             *string `json:"company"`
	Website             *string `json:"website"`
	CreatedAt           string  `json:"created_at"`
}

// UpdateProfileRequest holds the editable profile fields. Absent fields are
// left unchanged; an empty string clears the field.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Company   *string `json:"company"`
	Website   *string `json:"website"`
}

type SubscriptionStatus struct {
	Tier     string  `json:"tier"`
	Expires  *string `json:"expires"`
	IsActive bool    `json:"is_active"`
}

type UserStats struct {
	TotalVideos      int                `json:"total_videos"`
	CompletedVideos  int                `json:"completed_videos"`
	ProcessingVideos int                `json:"processing_videos"`
	PendingVideos    int                `json:"pending_videos"`
	FailedVideos     int                `json:"failed_videos"`
	Subscription     SubscriptionStatus `json:"subscription"`
}

func optString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func optTime(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := formatTime(nt.Time)
	return &s
}

func newUserResponse(u *db.User) UserResponse {
	return UserResponse{
		ID:                  u.ID.String(),
		Email:               u.Email,
		Username:            u.Username,
		FullName:            optString(u.FullName),
		IsActive:            u.IsActive,
		IsVerified:          u.IsVerified,
		SubscriptionTier:    u.SubscriptionTier,
		SubscriptionExpires: optTime(u.SubscriptionExpires),
		AvatarURL:           optString(u.AvatarURL),
		Bio:                 optString(u.Bio),
		Company:             optString(u.Company),
		Website:             optString(u.Website),
		CreatedAt:           formatTime(u.CreatedAt),
	}
}

func (h *Handlers) GetProfile(c *gin.Context) {
	user, ok := currentUser(c, "GetProfile")
	if !ok {
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Profile retrieved successfully", newUserResponse(user))
}

func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c, "UpdateProfile")
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("UpdateProfile: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	updated := *user
	fields := []struct {
		name  string
		value *string
		max   int
		dst   *sql.NullString
	}{
		{"Full name", req.FullName, 200, &updated.FullName},
		{"Avatar URL", req.AvatarURL, 500, &updated.AvatarURL},
		{"Bio", req.Bio, 1000, &updated.Bio},
		{"Company", req.Company, 200, &updated.Company},
		{"Website", req.Website, 500, &updated.Website},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v, err := cleanText(f.name, *f.value, 0, f.max)
		if err != nil {
			utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		*f.dst = sql.NullString{String: v, Valid: v != ""}
	}

	if err := h.Store.UpdateUserProfile(c.Request.Context(), &updated); err != nil {
		log.Errorf("UpdateProfile: Failed to update user %s: %v", user.ID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update profile", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Profile updated successfully", newUserResponse(&updated))
}

// GetStats reports the caller's video counts and subscription state. An
// active subscription record takes precedence over the tier on the account.
func (h *Handlers) GetStats(c *gin.Context) {
	user, ok := currentUser(c, "GetStats")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	counts, err := h.Store.CountUserVideosByStatus(ctx, user.ID)
	if err != nil {
		log.Errorf("GetStats: Failed to count videos for user %s: %v", user.ID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to load statistics", nil)
		return
	}
	sub, err := h.Store.FindActiveSubscription(ctx, user.ID)
	if err != nil {
		log.Errorf("GetStats: Failed to load subscription for user %s: %v", user.ID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to load statistics", nil)
		return
	}

	status := SubscriptionStatus{Tier: user.SubscriptionTier, Expires: optTime(user.SubscriptionExpires)}
	expires := user.SubscriptionExpires
	if sub != nil {
		status.Tier = sub.PlanType
		status.Expires = optTime(sub.EndDate)
		expires = sub.EndDate
	}
	status.IsActive = !expires.Valid || expires.Time.After(time.Now())

	stats := UserStats{
		CompletedVideos:  counts[db.StatusCompleted],
		ProcessingVideos: counts[db.StatusProcessing],
		PendingVideos:    counts[db.StatusPending],
		FailedVideos:     counts[db.StatusFailed],
		Subscription:     status,
	}
	for _, n := range counts {
		stats.TotalVideos += n
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Statistics retrieved successfully", stats)
}
