package handlers

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/middleware"
	"github.com/ASHISH26940/vidface-api/pkg/security"
	"github.com/ASHISH26940/vidface-api/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName *string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by both login variants.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("RegisterUser: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	username, err := normalizeUsername(req.Username)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !h.Passwords.ValidatePasswordStrength(req.Password) {
		utils.ResponseWithError(c, http.StatusBadRequest, "Password does not meet security requirements", gin.H{
			"min_length":        h.Passwords.MinLength,
			"require_uppercase": h.Passwords.RequireUppercase,
			"require_lowercase": h.Passwords.RequireLowercase,
			"require_digits":    h.Passwords.RequireDigits,
			"require_special":   h.Passwords.RequireSpecial,
		})
		return
	}
	var fullName sql.NullString
	if req.FullName != nil {
		name, err := cleanText("Full name", *req.FullName, 0, 200)
		if err != nil {
			utils.ResponseWithError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		fullName = sql.NullString{String: name, Valid: name != ""}
	}

	ctx := c.Request.Context()
	existing, err := h.Store.FindUserByEmail(ctx, email)
	if err != nil {
		log.Errorf("RegisterUser: Error finding user by email '%s': %v", email, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Registration failed", nil)
		return
	}
	if existing != nil {
		log.Debugf("RegisterUser: User with email '%s' already exists.", email)
		utils.ResponseWithError(c, http.StatusConflict, "Email already registered", nil)
		return
	}
	existing, err = h.Store.FindUserByUsername(ctx, username)
	if err != nil {
		log.Errorf("RegisterUser: Error finding user by username '%s': %v", username, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Registration failed", nil)
		return
	}
	if existing != nil {
		log.Debugf("RegisterUser: Username '%s' already taken.", username)
		utils.ResponseWithError(c, http.StatusConflict, "Username already taken", nil)
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		log.Errorf("RegisterUser: Error hashing password: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Registration failed", nil)
		return
	}

	user, err := h.Store.CreateUser(ctx, &db.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
	})
	if err != nil {
		log.Errorf("RegisterUser: Error creating user: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Error creating user", nil)
		return
	}
	log.Infof("User with ID '%s' created.", user.ID.String())
	utils.ResponseWithSuccess(c, http.StatusCreated, "User created successfully", newUserResponse(user))
}

// LoginUser authenticates with a JSON email and password.
func (h *Handlers) LoginUser(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("LoginUser: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	h.login(c, "email", strings.ToLower(strings.TrimSpace(req.Email)), req.Password, h.Store.FindUserByEmail)
}

// LoginForm authenticates with form-encoded username and password.
func (h *Handlers) LoginForm(c *gin.Context) {
	username := strings.ToLower(strings.TrimSpace(c.PostForm("username")))
	password := c.PostForm("password")
	if username == "" || password == "" {
		utils.ResponseWithError(c, http.StatusBadRequest, "username and password are required", nil)
		return
	}
	h.login(c, "username", username, password, h.Store.FindUserByUsername)
}

type userLookup func(ctx context.Context, value string) (*db.User, error)

// login checks the lockout state before touching credentials. Unknown
// accounts, wrong passwords and inactive accounts all count as failures.
func (h *Handlers) login(c *gin.Context, field, identifier, password string, find userLookup) {
	ctx := c.Request.Context()
	clientID := c.ClientIP()
	logger := log.WithFields(log.Fields{"client_ip": clientID, field: identifier})

	if err := h.Logins.CheckLoginAllowed(ctx, clientID); err != nil {
		var lockout *security.LockoutError
		if errors.As(err, &lockout) {
			logger.Warn("LoginUser: Client is locked out.")
			middleware.SetRetryAfter(c, lockout.RetryAfter)
			utils.ResponseWithError(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.",
				gin.H{"retry_after": int(math.Ceil(lockout.RetryAfter.Seconds()))})
			return
		}
		logger.Errorf("LoginUser: Login attempt ledger unavailable: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Login failed", nil)
		return
	}

	user, err := find(ctx, identifier)
	if err != nil {
		logger.Errorf("LoginUser: Error finding user: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Login failed", nil)
		return
	}
	if user == nil || !security.VerifyPassword(password, user.PasswordHash) {
		h.recordAttempt(ctx, clientID, false)
		logger.Debug("LoginUser: Invalid credentials.")
		c.Header("WWW-Authenticate", "Bearer")
		utils.ResponseWithError(c, http.StatusUnauthorized, "Incorrect "+field+" or password", nil)
		return
	}
	if !user.IsActive {
		h.recordAttempt(ctx, clientID, false)
		logger.Info("LoginUser: Inactive account.")
		utils.ResponseWithError(c, http.StatusForbidden, "Inactive user", nil)
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		logger.Errorf("LoginUser: Failed to generate JWT token: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to generate authentication token", nil)
		return
	}
	h.recordAttempt(ctx, clientID, true)

	logger.Infof("User %s logged in successfully.", user.Email)
	utils.ResponseWithSuccess(c, http.StatusOK, "Login successful", TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.Tokens.TTL().Seconds()),
		UserID:      user.ID.String(),
		Username:    user.Username,
	})
}

func (h *Handlers) recordAttempt(ctx context.Context, clientID string, success bool) {
	if err := h.Logins.RecordLoginAttempt(ctx, clientID, success); err != nil {
		log.Errorf("Failed to record login attempt for %s: %v", clientID, err)
	}
}
