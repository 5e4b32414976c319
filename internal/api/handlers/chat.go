package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Ayash-Bera/docchat/internal/middleware"
	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/Ayash-Bera/docchat/internal/services"
	"github.com/Ayash-Bera/docchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChatService is the part of services.ChatService the handler needs.
type ChatService interface {
	Answer(ctx context.Context, input models.ChatInput) (*models.ChatResponse, error)
	Recent(session string, limit int) ([]models.RecentQuery, error)
	QueryLogEnabled() bool
}

type ChatHandler struct {
	chat   ChatService
	logger *logrus.Logger
}

func NewChatHandler(chat ChatService, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

// HandleChat relays a query and returns the answer with its sources.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid chat request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := models.ChatInput{
		Query:       req.Query,
		RequestID:   middleware.GetRequestID(c),
		UserSession: h.getUserSession(c),
		UserAgent:   c.GetHeader("User-Agent"),
		IPAddress:   c.ClientIP(),
	}

	resp, err := h.chat.Answer(c.Request.Context(), input)
	switch {
	case errors.Is(err, services.ErrEmptyQuery):
		utils.ErrorResponse(c, http.StatusBadRequest, "Query is required")
		return
	case errors.Is(err, services.ErrQueryTooLong):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleRecent lists the latest logged queries, optionally for one session.
func (h *ChatHandler) HandleRecent(c *gin.Context) {
	if !h.chat.QueryLogEnabled() {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Query log is not enabled")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	session := c.Query("session")
	if session != "" && !utils.ValidateSessionID(session) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid session id")
		return
	}

	entries, err := h.chat.Recent(session, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load recent queries")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load recent queries")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, entries)
}

// getUserSession derives a session id from client attributes
func (h *ChatHandler) getUserSession(c *gin.Context) string {
	return utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
}
