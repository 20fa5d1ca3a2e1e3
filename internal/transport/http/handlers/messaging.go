package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

// MessagingHandler exposes conversation endpoints.
type MessagingHandler struct {
	messaging *usecase.MessagingService
	sessions  *usecase.SessionService
	sendLimit gin.HandlerFunc
}

// MessagingHandlerOption configures optional MessagingHandler dependencies.
type MessagingHandlerOption func(*MessagingHandler)

// WithSendLimit applies a rate limit ahead of the send-message handler.
func WithSendLimit(limit gin.HandlerFunc) MessagingHandlerOption {
	return func(h *MessagingHandler) { h.sendLimit = limit }
}

// NewMessagingHandler constructs MessagingHandler.
func NewMessagingHandler(messaging *usecase.MessagingService, sessions *usecase.SessionService, opts ...MessagingHandlerOption) *MessagingHandler {
	handler := &MessagingHandler{messaging: messaging, sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

// RegisterRoutes binds conversation routes behind authentication.
func (h *MessagingHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("", middleware.RequireAuth(h.sessions))
	authed.GET("/conversations", h.list)
	authed.POST("/conversations", h.start)
	authed.GET("/conversations/:id/messages", h.messages)
	authed.POST("/conversations/:id/messages", chain(h.sendLimit, h.send)...)
}

func (h *MessagingHandler) list(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	conversations, err := h.messaging.Conversations(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "try again"))
		return
	}

	views := make([]ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		views = append(views, NewConversationView(conv))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (h *MessagingHandler) start(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid conversation payload"))
		return
	}

	conv, err := h.messaging.StartConversation(c.Request.Context(), accountID, req.ParticipantIDs...)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "conversation requires at least two distinct participants"))
		return
	}

	c.JSON(http.StatusCreated, NewConversationView(*conv))
}

func (h *MessagingHandler) messages(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	messages, err := h.messaging.Messages(c.Request.Context(), accountID, c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrConversationNotFound, Status: http.StatusNotFound, Message: "conversation not found"},
			{Err: usecase.ErrNotParticipant, Status: http.StatusForbidden, Message: "not a conversation participant"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, NewMessageView(msg))
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

func (h *MessagingHandler) send(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "message body is required"))
		return
	}

	msg, err := h.messaging.Send(c.Request.Context(), accountID, c.Param("id"), req.Body)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmptyMessage, Status: http.StatusBadRequest, Message: "message body is required"},
			{Err: usecase.ErrConversationNotFound, Status: http.StatusNotFound, Message: "conversation not found"},
			{Err: usecase.ErrNotParticipant, Status: http.StatusForbidden, Message: "not a conversation participant"},
		}, http.StatusServiceUnavailable, "try again")
		return
	}

	c.JSON(http.StatusCreated, NewMessageView(*msg))
}
