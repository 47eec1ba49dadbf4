package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/platform/apierr"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
	"github.com/yungbote/skillsync-backend/internal/services"
	"github.com/yungbote/skillsync-backend/internal/session"
)

const (
	msgConfirmEmail  = "Please check your email to confirm your account before signing in."
	msgBadCredential = "Invalid email or password."
	msgProfileInit   = "Failed to initialize user profile."
)

type AuthHandler struct {
	log     *logger.Logger
	flow    *services.AuthFlow
	runtime *session.Runtime
}

func NewAuthHandler(log *logger.Logger, flow *services.AuthFlow, runtime *session.Runtime) *AuthHandler {
	return &AuthHandler{
		log:     log.With("handler", "AuthHandler"),
		flow:    flow,
		runtime: runtime,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := c.Request.Context()
	identity, user, err := ah.flow.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		snap, _ := ah.runtime.Apply(ctx, session.LoginFailed{Message: authFailureMessage(err)})
		c.JSON(failureStatus(err), gin.H{"error": APIError{Message: err.Error(), Code: "signup_failed"}, "snapshot": snap})
		return
	}
	if identity.PendingConfirmation {
		snap, _ := ah.runtime.Apply(ctx, session.LoginFailed{Message: msgConfirmEmail})
		RespondOK(c, gin.H{"pendingConfirmation": true, "snapshot": snap})
		return
	}

	snap, err := ah.runtime.Apply(ctx, session.LoginSucceeded{UserID: identity.ID})
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"user": user, "accessToken": identity.AccessToken, "snapshot": snap})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := c.Request.Context()
	identity, user, err := ah.flow.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		ah.log.Warn("login failed", "email", req.Email, "error", err)
		snap, _ := ah.runtime.Apply(ctx, session.LoginFailed{Message: authFailureMessage(err)})
		c.JSON(failureStatus(err), gin.H{"error": APIError{Message: authFailureMessage(err), Code: "login_failed"}, "snapshot": snap})
		return
	}

	snap, err := ah.runtime.Apply(ctx, session.LoginSucceeded{UserID: identity.ID})
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"user": user, "accessToken": identity.AccessToken, "snapshot": snap})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	snap, err := ah.runtime.Apply(c.Request.Context(), session.Logout{})
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"snapshot": snap})
}

// Restore resolves a persisted session into a signed-in state. Absence of a
// session is not an error; the machine simply stays on HOME.
func (ah *AuthHandler) Restore(c *gin.Context) {
	ctx := c.Request.Context()
	identity, user, err := ah.flow.Restore(ctx)
	if err != nil {
		ah.log.Warn("session restore failed", "error", err)
		snap, _ := ah.runtime.Apply(ctx, session.RestoreFailed{Warning: msgProfileInit})
		RespondOK(c, gin.H{"snapshot": snap})
		return
	}
	if identity == nil {
		snap, applyErr := ah.runtime.Snapshot(ctx)
		if applyErr != nil {
			RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", applyErr)
			return
		}
		RespondOK(c, gin.H{"snapshot": snap})
		return
	}

	snap, err := ah.runtime.Apply(ctx, session.SessionRestored{UserID: identity.ID})
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"user": user, "snapshot": snap})
}

func authFailureMessage(err error) string {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return msgBadCredential
	}
	return err.Error()
}

func failureStatus(err error) int {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
