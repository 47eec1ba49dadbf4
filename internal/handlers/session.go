package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/session"
)

// SessionHandler drives the sync-session flow. Every endpoint is a thin
// translation of one request into one event; the reducer decides whether the
// event applies in the current screen.
type SessionHandler struct {
	runtime *session.Runtime
}

func NewSessionHandler(runtime *session.Runtime) *SessionHandler {
	return &SessionHandler{runtime: runtime}
}

func (sh *SessionHandler) apply(c *gin.Context, ev session.Event) {
	snap, err := sh.runtime.Apply(c.Request.Context(), ev)
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "runtime_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"snapshot": snap})
}

func (sh *SessionHandler) Start(c *gin.Context) {
	sh.apply(c, session.StartSession{})
}

type skillsRequest struct {
	SkillToOffer string `json:"skillToOffer"`
	SkillToLearn string `json:"skillToLearn"`
}

func (sh *SessionHandler) SubmitSkills(c *gin.Context) {
	var req skillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sh.apply(c, session.SubmitSkills{Profile: domain.UserProfile{
		SkillToOffer: req.SkillToOffer,
		SkillToLearn: req.SkillToLearn,
	}})
}

func (sh *SessionHandler) ConfirmMatch(c *gin.Context) {
	sh.apply(c, session.ConfirmMatch{})
}

func (sh *SessionHandler) End(c *gin.Context) {
	sh.apply(c, session.EndSession{})
}

func (sh *SessionHandler) Restart(c *gin.Context) {
	sh.apply(c, session.RestartFlow{})
}

func (sh *SessionHandler) RegenerateCoach(c *gin.Context) {
	sh.apply(c, session.RegenerateCoach{})
}

type empathyRequest struct {
	Text string `json:"text" binding:"required"`
}

func (sh *SessionHandler) RewriteEmpathy(c *gin.Context) {
	var req empathyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sh.apply(c, session.RewriteEmpathy{Text: req.Text})
}
