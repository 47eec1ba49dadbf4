package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/chat"
	"github.com/yungbote/skillsync-backend/internal/middleware"
)

type ChatHandler struct {
	poller *chat.Poller
}

func NewChatHandler(poller *chat.Poller) *ChatHandler {
	return &ChatHandler{poller: poller}
}

// OpenThread switches the chat panel to the partner and returns whatever the
// poller has so far. The immediate fetch inside Open races this read; a
// follow-up GET returns the settled thread.
func (ch *ChatHandler) OpenThread(c *gin.Context) {
	partnerID := c.Param("partnerId")
	current, open := ch.poller.Partner()
	if !open || current != partnerID {
		ch.poller.Open(middleware.UserID(c), partnerID)
	}
	RespondOK(c, gin.H{"partnerId": partnerID, "messages": ch.poller.Thread()})
}

func (ch *ChatHandler) CloseThread(c *gin.Context) {
	ch.poller.Close()
	RespondOK(c, gin.H{"closed": true})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (ch *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, err := ch.poller.Send(c.Request.Context(), c.Param("partnerId"), req.Content)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"message": msg, "messages": ch.poller.Thread()})
}
