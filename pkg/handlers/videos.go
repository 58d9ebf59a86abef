package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/security"
	"github.com/ASHISH26940/vidface-api/pkg/storage"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/ASHISH26940/vidface-api/pkg/video"
	"github.com/ASHISH26940/vidface-api/pkg/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Message recorded on a job that could not be queued.
const queueFullMessage = "generation queue is full"

type CreateVideoRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Script      string  `json:"script" binding:"required"`
	AvatarID    *string `json:"avatar_id"`
	VoiceID     *string `json:"voice_id"`
	Language    string  `json:"language"`
}

// UpdateVideoRequest is a partial update; absent fields are left unchanged.
type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Script      *string `json:"script"`
	AvatarID    *string `json:"avatar_id"`
	VoiceID     *string `json:"voice_id"`
	Language    *string `json:"language"`
}

type VideoResponse struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	Description  *string  `json:"description"`
	Script       string   `json:"script"`
	AvatarID     *string  `json:"avatar_id"`
	VoiceID      *string  `json:"voice_id"`
	Language     string   `json:"language"`
	Status       string   `json:"status"`
	Progress     float64  `json:"progress"`
	OutputPath   *string  `json:"output_video_path"`
	Duration     *float64 `json:"duration"`
	FileSize     *int64   `json:"file_size"`
	Resolution   *string  `json:"resolution"`
	Format       string   `json:"format"`
	RenderMode   *string  `json:"render_mode"`
	Degraded     bool     `json:"degraded"`
	ErrorMessage *string  `json:"error_message"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	CompletedAt  *string  `json:"completed_at"`
}

type DraftScriptRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Language string `json:"language"`
}

func newVideoResponse(v *db.Video) VideoResponse {
	resp := VideoResponse{
		ID:           v.ID.String(),
		UserID:       v.UserID.String(),
		Title:        v.Title,
		Description:  optString(v.Description),
		Script:       v.Script,
		VoiceID:      optString(v.VoiceID),
		Language:     v.Language,
		Status:       string(v.Status),
		Progress:     v.Progress,
		OutputPath:   optString(v.OutputPath),
		Resolution:   optString(v.Resolution),
		Format:       v.Format,
		RenderMode:   optString(v.RenderMode),
		ErrorMessage: optString(v.ErrorMessage),
		CreatedAt:    formatTime(v.CreatedAt),
		UpdatedAt:    formatTime(v.UpdatedAt),
		CompletedAt:  optTime(v.CompletedAt),
	}
	if v.AvatarID.Valid {
		id := v.AvatarID.UUID.String()
		resp.AvatarID = &id
	}
	if v.Duration.Valid {
		resp.Duration = &v.Duration.Float64
	}
	if v.FileSize.Valid {
		resp.FileSize = &v.FileSize.Int64
	}
	if v.RenderMode.Valid {
		resp.Degraded = video.RenderMode(v.RenderMode.String).Degraded()
	}
	return resp
}

// videoFields is the validated, user-editable part of a video.
type videoFields struct {
	title       *string
	description *string
	script      *string
	voiceID     *string
	language    *string
}

func validateVideoFields(title, description, script, voiceID, language *string) (videoFields, error) {
	var out videoFields
	if title != nil {
		v, err := cleanText("Title", *title, 3, 200)
		if err != nil {
			return out, err
		}
		out.title = &v
	}
	if description != nil {
		v, err := cleanText("Description", *description, 0, 1000)
		if err != nil {
			return out, err
		}
		out.description = &v
	}
	if script != nil {
		v, err := cleanText("Script", *script, 10, 5000)
		if err != nil {
			return out, err
		}
		out.script = &v
	}
	if voiceID != nil {
		v, err := cleanText("Voice ID", *voiceID, 0, 100)
		if err != nil {
			return out, err
		}
		out.voiceID = &v
	}
	if language != nil {
		v, err := normalizeLanguage(*language)
		if err != nil {
			return out, err
		}
		out.language = &v
	}
	return out, nil
}

func (f videoFields) apply(v *db.Video) {
	if f.title != nil {
		v.Title = *f.title
	}
	if f.description != nil {
		v.Description = sql.NullString{String: *f.description, Valid: *f.description != ""}
	}
	if f.script != nil {
		v.Script = *f.script
	}
	if f.voiceID != nil {
		v.VoiceID = sql.NullString{String: *f.voiceID, Valid: *f.voiceID != ""}
	}
	if f.language != nil {
		v.Language = *f.language
	}
}

// resolveAvatar returns the avatar to attach. Unknown or inactive avatars are
// dropped rather than rejected.
func (h *Handlers) resolveAvatar(ctx context.Context, raw *string) (uuid.NullUUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		log.Debugf("Ignoring malformed avatar ID %q", *raw)
		return uuid.NullUUID{}, nil
	}
	avatar, err := h.Store.FindActiveAvatarByID(ctx, id)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	if avatar == nil {
		log.Debugf("Ignoring unknown avatar %s", id)
		return uuid.NullUUID{}, nil
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

// CreateVideo records a pending job and queues exactly one generation run for it.
func (h *Handlers) CreateVideo(c *gin.Context) {
	user, ok := currentUser(c, "CreateVideo")
	if !ok {
		return
	}

	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("CreateVideo: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	fields, err := validateVideoFields(&req.Title, req.Description, &req.Script, req.VoiceID, &req.Language)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	avatarID, err := h.resolveAvatar(ctx, req.AvatarID)
	if err != nil {
		log.Errorf("CreateVideo: Error resolving avatar: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to create video", nil)
		return
	}

	v := &db.Video{UserID: user.ID, AvatarID: avatarID}
	fields.apply(v)
	created, err := h.Store.CreateVideo(ctx, v)
	if err != nil {
		log.Errorf("CreateVideo: Failed to create video in DB: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to create video", nil)
		return
	}
	if avatarID.Valid {
		if err := h.Store.IncrementAvatarUsage(ctx, avatarID.UUID); err != nil {
			log.Warnf("CreateVideo: Failed to bump usage of avatar %s: %v", avatarID.UUID, err)
		}
	}

	id := created.ID
	err = h.Queue.Submit(func(taskCtx context.Context) {
		if err := h.Generator.Run(taskCtx, id); err != nil {
			log.WithField("video_id", id).Warnf("Generation ended with error: %v", err)
		}
	})
	if err != nil {
		log.Errorf("CreateVideo: Could not queue video %s: %v", id, err)
		if ferr := h.Store.FailVideo(context.WithoutCancel(ctx), id, queueFullMessage); ferr != nil {
			log.Errorf("CreateVideo: Failed to mark video %s failed: %v", id, ferr)
		}
		status := http.StatusServiceUnavailable
		if !errors.Is(err, worker.ErrQueueFull) && !errors.Is(err, worker.ErrPoolClosed) {
			status = http.StatusInternalServerError
		}
		utils.ResponseWithError(c, status, "Video generation is temporarily unavailable. Please try again later.", nil)
		return
	}

	log.Infof("Video '%s' queued for user %s. ID: %s", created.Title, user.ID, id)
	utils.ResponseWithSuccess(c, http.StatusCreated, "Video creation started", newVideoResponse(created))
}

func (h *Handlers) ListVideos(c *gin.Context) {
	user, ok := currentUser(c, "ListVideos")
	if !ok {
		return
	}
	skip, ok := queryInt(c, "skip", 0, 0, int(^uint32(0)>>1))
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 10, 1, 100)
	if !ok {
		return
	}
	status := db.VideoStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid status filter", nil)
		return
	}

	videos, err := h.Store.ListUserVideos(c.Request.Context(), user.ID, status, skip, limit)
	if err != nil {
		log.Errorf("ListVideos: Failed to fetch videos for user %s: %v", user.ID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve videos", nil)
		return
	}
	out := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		out = append(out, newVideoResponse(&videos[i]))
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Videos retrieved successfully", out)
}

// loadOwnedVideo answers 404 both for missing videos and for videos owned by
// another account.
func (h *Handlers) loadOwnedVideo(c *gin.Context, caller string) (*db.Video, bool) {
	user, ok := currentUser(c, caller)
	if !ok {
		return nil, false
	}
	id, ok := parseIDParam(c, caller, "video")
	if !ok {
		return nil, false
	}
	v, err := h.Store.FindUserVideo(c.Request.Context(), id, user.ID)
	if err != nil {
		log.Errorf("%s: Failed to fetch video %s: %v", caller, id, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve video", nil)
		return nil, false
	}
	if v == nil {
		log.Debugf("%s: Video %s not found for user %s.", caller, id, user.ID)
		utils.ResponseWithError(c, http.StatusNotFound, "Video not found", nil)
		return nil, false
	}
	return v, true
}

func (h *Handlers) GetVideo(c *gin.Context) {
	v, ok := h.loadOwnedVideo(c, "GetVideo")
	if !ok {
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video retrieved successfully", newVideoResponse(v))
}

func (h *Handlers) UpdateVideo(c *gin.Context) {
	v, ok := h.loadOwnedVideo(c, "UpdateVideo")
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("UpdateVideo: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if v.Status == db.StatusProcessing {
		utils.ResponseWithError(c, http.StatusBadRequest, "Cannot update video while processing", nil)
		return
	}
	fields, err := validateVideoFields(req.Title, req.Description, req.Script, req.VoiceID, req.Language)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	if req.AvatarID != nil {
		if v.AvatarID, err = h.resolveAvatar(ctx, req.AvatarID); err != nil {
			log.Errorf("UpdateVideo: Error resolving avatar: %v", err)
			utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update video", nil)
			return
		}
	}
	fields.apply(v)

	if err := h.Store.UpdateVideoDetails(ctx, v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Picked up by the pipeline since it was loaded.
			utils.ResponseWithError(c, http.StatusBadRequest, "Cannot update video while processing", nil)
			return
		}
		log.Errorf("UpdateVideo: Failed to update video %s: %v", v.ID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update video", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video updated successfully", newVideoResponse(v))
}

// DeleteVideo removes the record and its artifacts. An in-flight generation
// run is not stopped.
func (h *Handlers) DeleteVideo(c *gin.Context) {
	v, ok := h.loadOwnedVideo(c, "DeleteVideo")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.Store.DeleteUserVideo(ctx, v.ID, v.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.ResponseWithError(c, http.StatusNotFound, "Video not found", nil)
			return
		}
		log.Errorf("DeleteVideo: Failed to delete video %s: %v", v.ID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete video", nil)
		return
	}

	if v.OutputPath.Valid {
		path := v.OutputPath.String
		if h.Artifacts != nil && h.Artifacts.Contains(path) {
			if err := h.Artifacts.Remove(path); err != nil {
				log.Warnf("DeleteVideo: Failed to remove artifact %s: %v", path, err)
			}
		}
		if h.Mirror != nil {
			if err := h.Mirror.Remove(ctx, v.ID, filepath.Ext(path)); err != nil {
				log.Warnf("DeleteVideo: Failed to remove mirrored artifact of %s: %v", v.ID, err)
			}
		}
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video deleted successfully", nil)
}

// DownloadVideo streams a completed artifact, or hands out a presigned link
// when the artifact is mirrored to object storage.
func (h *Handlers) DownloadVideo(c *gin.Context) {
	v, ok := h.loadOwnedVideo(c, "DownloadVideo")
	if !ok {
		return
	}
	if v.Status != db.StatusCompleted {
		utils.ResponseWithError(c, http.StatusBadRequest, "Video not ready for download", gin.H{"status": v.Status})
		return
	}
	if !v.OutputPath.Valid || v.OutputPath.String == "" {
		utils.ResponseWithError(c, http.StatusNotFound, "Video file not found", nil)
		return
	}
	path := v.OutputPath.String
	if h.Artifacts == nil || !h.Artifacts.Contains(path) {
		log.Warnf("DownloadVideo: Artifact path %s of video %s is outside the output directory.", path, v.ID)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid file path", nil)
		return
	}
	if _, err := os.Stat(path); err != nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Video file not found", nil)
		return
	}

	ext := filepath.Ext(path)
	if h.Mirror != nil {
		url, err := h.Mirror.PresignedURL(c.Request.Context(), v.ID, ext)
		if err == nil {
			utils.ResponseWithSuccess(c, http.StatusOK, "Download link created", gin.H{"download_url": url})
			return
		}
		if errors.Is(err, storage.ErrObjectMissing) {
			log.Warnf("DownloadVideo: Video %s was never mirrored, streaming local copy.", v.ID)
		} else {
			log.Warnf("DownloadVideo: Presigning failed for %s, streaming local copy: %v", v.ID, err)
		}
	}

	name := security.SanitizeFilename(v.Title)
	if strings.TrimSpace(name) == "" {
		name = v.ID.String()
	}
	c.FileAttachment(path, name+ext)
}

func (h *Handlers) ListVoices(c *gin.Context) {
	voices := h.Voices.ListVoices(c.Request.Context())
	utils.ResponseWithSuccess(c, http.StatusOK, "Voices retrieved successfully", voices)
}

func (h *Handlers) GetVoice(c *gin.Context) {
	v, ok := h.Voices.GetVoice(c.Request.Context(), c.Param("id"))
	if !ok {
		utils.ResponseWithError(c, http.StatusNotFound, "Voice not found", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Voice retrieved successfully", v)
}

// DraftScript asks the configured language model for a narration script.
func (h *Handlers) DraftScript(c *gin.Context) {
	if h.Scripts == nil {
		utils.ResponseWithError(c, http.StatusServiceUnavailable, "Script drafting is not configured", nil)
		return
	}
	var req DraftScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	topic, err := cleanText("Topic", req.Topic, 3, 500)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	language, err := normalizeLanguage(req.Language)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	script, err := h.Scripts.DraftScript(c.Request.Context(), topic, language)
	if err != nil {
		log.Errorf("DraftScript: Generation failed: %v", err)
		utils.ResponseWithError(c, http.StatusBadGateway, "Failed to draft script", nil)
		return
	}
	if !security.IsSafe(script) {
		log.Warn("DraftScript: Discarding draft with unsafe content.")
		utils.ResponseWithError(c, http.StatusUnprocessableEntity, "Drafted script contained unsafe content", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Script drafted successfully", gin.H{"script": script, "language": language})
}
