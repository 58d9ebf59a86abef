package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/config"
	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/db/queries"
	"github.com/ASHISH26940/vidface-api/pkg/middleware"
	"github.com/ASHISH26940/vidface-api/pkg/security"
	"github.com/ASHISH26940/vidface-api/pkg/services"
	"github.com/ASHISH26940/vidface-api/pkg/storage"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/ASHISH26940/vidface-api/pkg/voice"
	"github.com/ASHISH26940/vidface-api/pkg/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// VoiceCatalog lists the narration voices a client may choose from.
type VoiceCatalog interface {
	ListVoices(ctx context.Context) []voice.Voice
	GetVoice(ctx context.Context, id string) (*voice.Voice, bool)
}

// JobRunner generates one video to a terminal state.
type JobRunner interface {
	Run(ctx context.Context, videoID uuid.UUID) error
}

// JobQueue accepts background work without blocking the request.
type JobQueue interface {
	Submit(task worker.Task) error
	Pending() int
}

// DownloadLinker hands out direct links to mirrored artifacts.
type DownloadLinker interface {
	PresignedURL(ctx context.Context, videoID uuid.UUID, ext string) (string, error)
	Remove(ctx context.Context, videoID uuid.UUID, ext string) error
}

// ScriptDrafter writes narration scripts from a topic.
type ScriptDrafter interface {
	DraftScript(ctx context.Context, topic, language string) (string, error)
}

// Handlers holds the dependencies of every HTTP handler.
type Handlers struct {
	Config    *config.Config
	Store     *queries.Store
	Tokens    *services.TokenService
	Passwords security.Policy
	Logins    *security.LoginGuard
	Limiter   *security.RateLimiter

	Voices    VoiceCatalog
	Generator JobRunner
	Queue     JobQueue
	Artifacts *storage.LocalStore

	// Optional; nil when not configured.
	Mirror  DownloadLinker
	Scripts ScriptDrafter
}

// NewHandlers wires the request-path security components from cfg. The
// generation components are assigned by the caller.
func NewHandlers(cfg *config.Config, store *queries.Store, ledger security.Ledger) *Handlers {
	return &Handlers{
		Config:    cfg,
		Store:     store,
		Tokens:    services.NewTokenService(cfg.JwtSecret, cfg.AccessTokenTTL),
		Passwords: security.PolicyFromConfig(cfg),
		Logins:    security.NewLoginGuard(ledger, cfg.MaxLoginAttempts, cfg.LoginLockout),
		Limiter:   security.NewRateLimiter(ledger),
	}
}

// currentUser returns the account loaded by middleware.ActiveUser, answering
// 500 when the middleware was not applied.
func currentUser(c *gin.Context, caller string) (*db.User, bool) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		log.Errorf("%s: User not found in context. ActiveUser likely wasn't applied.", caller)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User session data missing.", nil)
	}
	return user, ok
}

// parseIDParam parses the :id path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, caller, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Debugf("%s: Invalid %s ID format: %s", caller, what, c.Param("id"))
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter within [min, max].
func queryInt(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid query parameter: "+name,
			gin.H{name: raw, "min": min, "max": max})
		return 0, false
	}
	return n, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
