package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/security"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Budget is a request limit over a trailing window.
type Budget struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimit enforces every budget per client IP. The first budget is
// reported in the X-RateLimit-* headers. Ledger errors let the request through.
func RateLimit(limiter *security.RateLimiter, budgets ...Budget) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(budgets) == 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		ip := c.ClientIP()

		for _, b := range budgets {
			key := b.Name + ":" + ip
			ok, err := limiter.Allow(ctx, key, b.Limit, b.Window)
			if err != nil {
				log.Errorf("RateLimit: ledger error for %s: %v", key, err)
				continue
			}
			if !ok {
				tooManyRequests(c, limiter, key, b, "Rate limit exceeded. Try again later.")
				return
			}
		}

		primary := budgets[0]
		remaining, err := limiter.Remaining(ctx, primary.Name+":"+ip, primary.Limit, primary.Window)
		if err == nil {
			c.Header("X-RateLimit-Limit", strconv.Itoa(primary.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context, limiter *security.RateLimiter, key string, b Budget, message string) {
	retry, err := limiter.RetryAfter(c.Request.Context(), key, b.Window)
	if err != nil || retry <= 0 {
		retry = b.Window
	}
	SetRetryAfter(c, retry)
	c.Header("X-RateLimit-Limit", strconv.Itoa(b.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	utils.AbortWithError(c, http.StatusTooManyRequests, message, gin.H{"retry_after": int(math.Ceil(retry.Seconds()))})
}

// SetRetryAfter writes d as whole seconds, rounded up.
func SetRetryAfter(c *gin.Context, d time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
}

// DefaultBudgets returns the per-minute budget and, when enforceLong is set,
// the hour and day budgets.
func DefaultBudgets(perMinute, perHour, perDay int, enforceLong bool) []Budget {
	budgets := []Budget{{Name: "minute", Limit: perMinute, Window: time.Minute}}
	if enforceLong {
		budgets = append(budgets,
			Budget{Name: "hour", Limit: perHour, Window: time.Hour},
			Budget{Name: "day", Limit: perDay, Window: 24 * time.Hour},
		)
	}
	return budgets
}
