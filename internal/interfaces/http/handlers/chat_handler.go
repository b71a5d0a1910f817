package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eli5y/eli5y/internal/application/tutor"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/pkg/errors"
)

// ChatHandler serves the tutoring endpoint.
type ChatHandler struct {
	service tutor.Service
	logger  logging.Logger
}

func NewChatHandler(service tutor.Service, logger logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChatHandler{service: service, logger: logger.Named("chat_handler")}
}

// Chat answers the latest question in the supplied conversation.
func (h *ChatHandler) Chat(c *gin.Context) {
	var in tutor.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	reply, err := h.service.Ask(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
