package handlers

import (
	"net/http"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/db/queries"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type AvatarResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ImagePath   string  `json:"image_path"`
	VideoPath   *string `json:"video_path"`
	Category    *string `json:"category"`
	Gender      *string `json:"gender"`
	AgeRange    *string `json:"age_range"`
	Ethnicity   *string `json:"ethnicity"`
	UsageCount  int64   `json:"usage_count"`
	Rating      int     `json:"rating"`
	CreatedAt   string  `json:"created_at"`
}

func newAvatarResponse(a *db.Avatar) AvatarResponse {
	return AvatarResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		Description: optString(a.Description),
		ImagePath:   a.ImagePath,
		VideoPath:   optString(a.VideoPath),
		Category:    optString(a.Category),
		Gender:      optString(a.Gender),
		AgeRange:    optString(a.AgeRange),
		Ethnicity:   optString(a.Ethnicity),
		UsageCount:  a.UsageCount,
		Rating:      a.Rating,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

func newAvatarResponses(avatars []db.Avatar) []AvatarResponse {
	out := make([]AvatarResponse, 0, len(avatars))
	for i := range avatars {
		out = append(out, newAvatarResponse(&avatars[i]))
	}
	return out
}

var avatarSorts = map[string]bool{"": true, "popular": true, "rating": true, "newest": true}

func (h *Handlers) ListAvatars(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 50, 1, 100)
	if !ok {
		return
	}
	filter := queries.AvatarFilter{
		Category: c.Query("category"),
		Gender:   c.Query("gender"),
		SortBy:   c.Query("sort_by"),
		Limit:    limit,
	}
	if !avatarSorts[filter.SortBy] {
		utils.ResponseWithError(c, http.StatusBadRequest, "sort_by must be one of popular, rating, newest", nil)
		return
	}

	avatars, err := h.Store.ListAvatars(c.Request.Context(), filter)
	if err != nil {
		log.Errorf("ListAvatars: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve avatars", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Avatars retrieved successfully", newAvatarResponses(avatars))
}

func (h *Handlers) ListAvatarCategories(c *gin.Context) {
	categories, err := h.Store.ListAvatarCategories(c.Request.Context())
	if err != nil {
		log.Errorf("ListAvatarCategories: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve categories", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Categories retrieved successfully", gin.H{"categories": categories})
}

func (h *Handlers) ListPopularAvatars(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 10, 1, 100)
	if !ok {
		return
	}
	avatars, err := h.Store.ListPopularAvatars(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("ListPopularAvatars: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve avatars", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Popular avatars retrieved successfully", newAvatarResponses(avatars))
}

func (h *Handlers) ListFeaturedAvatars(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 6, 1, 100)
	if !ok {
		return
	}
	avatars, err := h.Store.ListFeaturedAvatars(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("ListFeaturedAvatars: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve avatars", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Featured avatars retrieved successfully", newAvatarResponses(avatars))
}

func (h *Handlers) GetAvatar(c *gin.Context) {
	id, ok := parseIDParam(c, "GetAvatar", "avatar")
	if !ok {
		return
	}
	avatar, err := h.Store.FindActiveAvatarByID(c.Request.Context(), id)
	if err != nil {
		log.Errorf("GetAvatar: Error retrieving avatar %s: %v", id, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve avatar", nil)
		return
	}
	if avatar == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Avatar not found", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Avatar retrieved successfully", newAvatarResponse(avatar))
}
