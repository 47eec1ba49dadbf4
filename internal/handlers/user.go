package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/middleware"
	"github.com/yungbote/skillsync-backend/internal/services"
	"github.com/yungbote/skillsync-backend/internal/social"
)

type UserHandler struct {
	data   *social.Reconciler
	avatar services.AvatarService
}

func NewUserHandler(data *social.Reconciler, avatar services.AvatarService) *UserHandler {
	return &UserHandler{data: data, avatar: avatar}
}

func (uh *UserHandler) ListUsers(c *gin.Context) {
	RespondOK(c, gin.H{"users": uh.data.Cache().Users()})
}

func (uh *UserHandler) ToggleFollow(c *gin.Context) {
	actorID := middleware.UserID(c)
	targetID := c.Param("id")
	if actorID == targetID {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("cannot follow yourself"))
		return
	}
	if err := uh.data.ToggleFollow(c.Request.Context(), actorID, targetID); err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"users": uh.data.Cache().Users()})
}

type updateMeRequest struct {
	AboutMe string `json:"aboutMe"`
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID := middleware.UserID(c)
	if err := uh.data.UpdateAboutMe(c.Request.Context(), userID, req.AboutMe); err != nil {
		RespondFailure(c, err)
		return
	}
	user, ok := uh.data.Cache().User(userID)
	if !ok {
		RespondOK(c, gin.H{"users": uh.data.Cache().Users()})
		return
	}
	RespondOK(c, gin.H{"user": user})
}

// Avatar renders the initials fallback for users without a profile picture.
func (uh *UserHandler) Avatar(c *gin.Context) {
	if uh.avatar == nil {
		RespondError(c, http.StatusServiceUnavailable, "avatar_unavailable", fmt.Errorf("avatar rendering is not configured"))
		return
	}
	userID := c.Param("id")
	user, ok := uh.data.Cache().User(userID)
	if !ok {
		RespondError(c, http.StatusNotFound, "user_not_found", fmt.Errorf("user %s not found", userID))
		return
	}
	buf, err := uh.avatar.GenerateUserAvatar(user.ID, user.Name)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "avatar_failed", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
