package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/session"
)

type StateHandler struct {
	runtime *session.Runtime
}

func NewStateHandler(runtime *session.Runtime) *StateHandler {
	return &StateHandler{runtime: runtime}
}

func (sh *StateHandler) GetState(c *gin.Context) {
	snap, err := sh.runtime.Snapshot(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"snapshot": snap})
}

type navigateRequest struct {
	Target string `json:"target" binding:"required"`
	UserID string `json:"userId"`
}

// Navigate maps a screen move onto the corresponding event. Moves the current
// screen does not allow are silently ignored by the reducer, so the response
// snapshot tells the caller whether anything happened.
func (sh *StateHandler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	var ev session.Event
	switch req.Target {
	case "login":
		ev = session.NavigateLogin{}
	case "home":
		ev = session.NavigateHome{}
	case "dashboard":
		ev = session.BackToDashboard{}
	case "profile":
		if req.UserID == "" {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("userId is required for profile navigation"))
			return
		}
		ev = session.ViewProfile{UserID: req.UserID}
	default:
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unknown navigation target %q", req.Target))
		return
	}

	snap, err := sh.runtime.Apply(c.Request.Context(), ev)
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"snapshot": snap})
}
