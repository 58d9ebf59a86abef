package queries

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return NewStore(conn)
}

func createTestUser(t *testing.T, s *Store, email, username string) *db.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), &db.User{
		Email:        email,
		Username:     username,
		PasswordHash: "hash",
		IsActive:     true,
	})
	require.NoError(t, err)
	return user
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user := createTestUser(t, s, "alice@example.com", "alice")
	require.NotEqual(t, uuid.Nil, user.ID)
	require.Equal(t, "free", user.SubscriptionTier)

	byEmail, err := s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, user.ID, byEmail.ID)
	require.True(t, byEmail.IsActive)

	missing, err := s.FindUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Nil(t, missing)

	byEmail.Bio = sql.NullString{String: "hello", Valid: true}
	require.NoError(t, s.UpdateUserProfile(ctx, byEmail))

	byID, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", byID.Bio.String)

	_, err = s.CreateUser(ctx, &db.User{Email: "alice@example.com", Username: "other", PasswordHash: "x"})
	require.Error(t, err, "email must be unique")
}

func TestAvatarCatalog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mk := func(name, category, gender string, usage int64, rating int, public bool) *db.Avatar {
		a, err := s.CreateAvatar(ctx, &db.Avatar{
			Name:       name,
			ImagePath:  "/static/avatars/" + name + ".png",
			Category:   sql.NullString{String: category, Valid: category != ""},
			Gender:     sql.NullString{String: gender, Valid: gender != ""},
			UsageCount: usage,
			Rating:     rating,
			IsPublic:   public,
			IsActive:   true,
		})
		require.NoError(t, err)
		return a
	}
	anna := mk("anna", "professional", "female", 10, 5, true)
	mk("ben", "casual", "male", 30, 3, true)
	mk("cara", "professional", "female", 5, 4, true)
	hidden := mk("dan", "secret", "male", 100, 5, false)

	all, err := s.ListAvatars(ctx, AvatarFilter{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 3)

	pro, err := s.ListAvatars(ctx, AvatarFilter{Category: "professional", Gender: "female"})
	require.NoError(t, err)
	require.Len(t, pro, 2)

	popular, err := s.ListPopularAvatars(ctx, 2)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	require.Equal(t, "ben", popular[0].Name)

	featured, err := s.ListFeaturedAvatars(ctx, 6)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	require.Equal(t, "anna", featured[0].Name)

	categories, err := s.ListAvatarCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"casual", "professional"}, categories)

	got, err := s.FindActiveAvatarByID(ctx, hidden.ID)
	require.NoError(t, err)
	require.Nil(t, got, "private avatars are not exposed")

	require.NoError(t, s.IncrementAvatarUsage(ctx, anna.ID))
	got, err = s.FindActiveAvatarByID(ctx, anna.ID)
	require.NoError(t, err)
	require.Equal(t, int64(11), got.UsageCount)
}

func TestVideoLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := createTestUser(t, s, "alice@example.com", "alice")

	video, err := s.CreateVideo(ctx, &db.Video{UserID: user.ID, Title: "Demo", Script: "This is a test script"})
	require.NoError(t, err)
	require.Equal(t, db.StatusPending, video.Status)
	require.Equal(t, 0.0, video.Progress)

	// Completing straight from pending is rejected.
	require.ErrorIs(t, s.CompleteVideo(ctx, video.ID, VideoResult{OutputPath: "/x.mp4"}), sql.ErrNoRows)

	require.NoError(t, s.MarkVideoProcessing(ctx, video.ID, 0.1))
	require.ErrorIs(t, s.MarkVideoProcessing(ctx, video.ID, 0.1), sql.ErrNoRows)

	require.NoError(t, s.UpdateVideoProgress(ctx, video.ID, 0.5))
	require.ErrorIs(t, s.UpdateVideoProgress(ctx, video.ID, 0.3), sql.ErrNoRows, "progress never decreases")
	require.Error(t, s.UpdateVideoProgress(ctx, video.ID, 1.0))

	// Users cannot edit while processing.
	video.Title = "Edited"
	require.ErrorIs(t, s.UpdateVideoDetails(ctx, video), sql.ErrNoRows)

	require.NoError(t, s.CompleteVideo(ctx, video.ID, VideoResult{
		OutputPath: "/out/" + video.ID.String() + ".mp4",
		Duration:   3.5,
		FileSize:   1024,
		Resolution: "320x240",
		RenderMode: "color_track",
	}))

	got, err := s.FindUserVideo(ctx, video.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusCompleted, got.Status)
	require.Equal(t, 1.0, got.Progress)
	require.True(t, got.OutputPath.Valid)
	require.False(t, got.ErrorMessage.Valid)
	require.True(t, got.CompletedAt.Valid)
	require.Equal(t, 3.5, got.Duration.Float64)
	require.Equal(t, "color_track", got.RenderMode.String)

	// Terminal states are final.
	require.ErrorIs(t, s.FailVideo(ctx, video.ID, "late failure"), sql.ErrNoRows)
}

func TestVideoFailureClearsOutput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := createTestUser(t, s, "alice@example.com", "alice")

	video, err := s.CreateVideo(ctx, &db.Video{UserID: user.ID, Title: "Demo", Script: "This is a test script"})
	require.NoError(t, err)
	require.NoError(t, s.MarkVideoProcessing(ctx, video.ID, 0.1))
	require.NoError(t, s.FailVideo(ctx, video.ID, "speech synthesis failed"))

	got, err := s.FindVideoByID(ctx, video.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusFailed, got.Status)
	require.Equal(t, "speech synthesis failed", got.ErrorMessage.String)
	require.False(t, got.OutputPath.Valid)
}

func TestVideoOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice@example.com", "alice")
	bob := createTestUser(t, s, "bob@example.com", "bob")

	video, err := s.CreateVideo(ctx, &db.Video{UserID: alice.ID, Title: "Demo", Script: "This is a test script"})
	require.NoError(t, err)

	got, err := s.FindUserVideo(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	require.ErrorIs(t, s.DeleteUserVideo(ctx, video.ID, bob.ID), sql.ErrNoRows)

	video.UserID = bob.ID
	video.Title = "Stolen"
	require.ErrorIs(t, s.UpdateVideoDetails(ctx, video), sql.ErrNoRows)

	video.UserID = alice.ID
	video.Title = "Renamed"
	require.NoError(t, s.UpdateVideoDetails(ctx, video))

	list, err := s.ListUserVideos(ctx, alice.ID, "", 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Renamed", list[0].Title)

	pending, err := s.ListUserVideos(ctx, alice.ID, db.StatusCompleted, 0, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	counts, err := s.CountUserVideosByStatus(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 1, counts[db.StatusPending])
	require.Equal(t, 0, counts[db.StatusCompleted])

	require.NoError(t, s.DeleteUserVideo(ctx, video.ID, alice.ID))
}

func TestActiveSubscription(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := createTestUser(t, s, "alice@example.com", "alice")

	none, err := s.FindActiveSubscription(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = s.CreateSubscription(ctx, &db.Subscription{UserID: user.ID, PlanType: "pro", Amount: 19.99})
	require.NoError(t, err)

	sub, err := s.FindActiveSubscription(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	require.Equal(t, "pro", sub.PlanType)
}

func TestSeedAvatarsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.SeedAvatars(ctx)
	require.NoError(t, err)
	require.Equal(t, len(DefaultAvatars), n)

	n, err = s.SeedAvatars(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	total, err := s.CountAvatars(ctx)
	require.NoError(t, err)
	require.Equal(t, len(DefaultAvatars), total)

	featured, err := s.ListFeaturedAvatars(ctx, 10)
	require.NoError(t, err)
	for _, a := range featured {
		require.GreaterOrEqual(t, a.Rating, 4)
	}
	require.Equal(t, uuid.Nil, DefaultAvatars[0].ID)
}

func TestFailInterruptedVideos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := createTestUser(t, s, "alice@example.com", "alice")

	pending, err := s.CreateVideo(ctx, &db.Video{UserID: user.ID, Title: "Pending", Script: "This is a test script"})
	require.NoError(t, err)
	running, err := s.CreateVideo(ctx, &db.Video{UserID: user.ID, Title: "Running", Script: "This is a test script"})
	require.NoError(t, err)
	require.NoError(t, s.MarkVideoProcessing(ctx, running.ID, 0.1))
	done, err := s.CreateVideo(ctx, &db.Video{UserID: user.ID, Title: "Done", Script: "This is a test script"})
	require.NoError(t, err)
	require.NoError(t, s.MarkVideoProcessing(ctx, done.ID, 0.1))
	require.NoError(t, s.CompleteVideo(ctx, done.ID, VideoResult{OutputPath: "/tmp/done.mp4", Duration: 3}))

	n, err := s.FailInterruptedVideos(ctx, "interrupted")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	for _, id := range []uuid.UUID{pending.ID, running.ID} {
		got, err := s.FindVideoByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, db.StatusFailed, got.Status)
		require.Equal(t, "interrupted", got.ErrorMessage.String)
	}
	got, err := s.FindVideoByID(ctx, done.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusCompleted, got.Status)
}
