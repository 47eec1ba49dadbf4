package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/middleware"
	"github.com/yungbote/skillsync-backend/internal/social"
)

type FeedHandler struct {
	data *social.Reconciler
}

func NewFeedHandler(data *social.Reconciler) *FeedHandler {
	return &FeedHandler{data: data}
}

func (fh *FeedHandler) ListPosts(c *gin.Context) {
	RespondOK(c, gin.H{"posts": fh.data.Cache().Posts()})
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

func (fh *FeedHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	post, err := fh.data.CreatePost(c.Request.Context(), middleware.UserID(c), req.Title, req.Content)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"post": post, "posts": fh.data.Cache().Posts()})
}

func (fh *FeedHandler) ToggleLike(c *gin.Context) {
	if err := fh.data.ToggleLike(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"posts": fh.data.Cache().Posts()})
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (fh *FeedHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	comment, err := fh.data.AddComment(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"comment": comment, "posts": fh.data.Cache().Posts()})
}
