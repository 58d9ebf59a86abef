package queries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	log "github.com/sirupsen/logrus"
)

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

// DefaultAvatars is the catalog installed by the seed-avatars command.
var DefaultAvatars = []db.Avatar{
	{Name: "Sarah", Description: ns("Confident presenter for corporate updates"), ImagePath: "avatars/sarah.jpg",
		Category: ns("business"), Gender: ns("female"), AgeRange: ns("30-40"), Rating: 5},
	{Name: "James", Description: ns("Calm, authoritative narrator"), ImagePath: "avatars/james.jpg",
		Category: ns("business"), Gender: ns("male"), AgeRange: ns("40-50"), Rating: 4},
	{Name: "Maya", Description: ns("Friendly tutor for lessons and explainers"), ImagePath: "avatars/maya.jpg",
		Category: ns("education"), Gender: ns("female"), AgeRange: ns("20-30"), Rating: 5},
	{Name: "Leo", Description: ns("Upbeat host for product demos"), ImagePath: "avatars/leo.jpg",
		Category: ns("marketing"), Gender: ns("male"), AgeRange: ns("20-30"), Rating: 4},
	{Name: "Aiko", Description: ns("Relaxed storyteller"), ImagePath: "avatars/aiko.jpg",
		Category: ns("casual"), Gender: ns("female"), AgeRange: ns("30-40"), Rating: 3},
	{Name: "Sam", Description: ns("Neutral voice for support content"), ImagePath: "avatars/sam.jpg",
		Category: ns("support"), Gender: ns("neutral"), AgeRange: ns("30-40"), Rating: 3},
}

// SeedAvatars installs DefaultAvatars when the catalog is empty and returns
// the number of avatars inserted.
func (s *Store) SeedAvatars(ctx context.Context) (int, error) {
	n, err := s.CountAvatars(ctx)
	if err != nil {
		return 0, fmt.Errorf("count avatars: %w", err)
	}
	if n > 0 {
		log.Infof("Avatar catalog already has %d entries, skipping seed.", n)
		return 0, nil
	}

	for i := range DefaultAvatars {
		avatar := DefaultAvatars[i]
		avatar.IsPublic = true
		avatar.IsActive = true
		if _, err := s.CreateAvatar(ctx, &avatar); err != nil {
			return i, err
		}
	}
	log.Infof("Seeded %d avatars.", len(DefaultAvatars))
	return len(DefaultAvatars), nil
}
