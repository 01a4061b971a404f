package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bedrock-chatbot/internal/chat"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	ModelID   string `json:"model_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
	Region    string `json:"region"`
	Timestamp string `json:"timestamp"`
}

type historyItem struct {
	Timestamp string `json:"timestamp"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	MessageID string `json:"message_id"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "AWS Bedrock Chatbot API",
		"version": "1.0.0",
		"health":  "/health",
		"endpoints": gin.H{
			"chat":     "POST /chat",
			"history":  "GET /history/{session_id}",
			"session":  "GET /session/{session_id}",
			"sessions": "GET /sessions",
			"models":   "POST /models/list",
		},
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "aws-chatbot",
		"version":    "1.0.0",
		"aws_region": s.region,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: string(chat.ErrorInvalidInput), Detail: "could not parse request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: string(chat.ErrorInvalidInput), Detail: "message is required"})
		return
	}

	sess, err := s.registry.GetOrCreate(req.SessionID, req.ModelID)
	if err != nil {
		s.logger.Error("could not create session", "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR"})
		return
	}

	reply, err := sess.Respond(c.Request.Context(), req.Message)
	if err != nil {
		status, code := errorStatus(err)
		c.JSON(status, errorResponse{Error: code, Detail: "error processing chat request"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Response:  reply,
		SessionID: sess.ID(),
		Model:     sess.Model(),
		Region:    sess.Region(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) history(c *gin.Context) {
	turns := s.registry.History(c.Request.Context(), c.Param("session_id"))

	items := make([]historyItem, 0, len(turns))
	for _, turn := range turns {
		items = append(items, historyItem{
			Timestamp: turn.Timestamp.UTC().Format(time.RFC3339Nano),
			Role:      string(turn.Role),
			Content:   turn.Content,
			MessageID: turn.ID,
		})
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) sessionInfo(c *gin.Context) {
	sess, err := s.registry.Get(c.Param("session_id"))
	if err != nil {
		status, code := errorStatus(err)
		c.JSON(status, errorResponse{Error: code, Detail: "session not found in active sessions"})
		return
	}
	c.JSON(http.StatusOK, sess.Summary())
}

func (s *Server) sessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.List())
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("session_id")
	if !s.registry.Remove(id) {
		c.JSON(http.StatusNotFound, errorResponse{Error: string(chat.ErrorNotFound), Detail: "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session " + id + " deleted", "status": "success"})
}

func (s *Server) listModels(c *gin.Context) {
	models, fallback, err := s.models.ListModels(c.Request.Context())
	if err != nil {
		s.logger.Error("could not list models", "err", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR", Detail: "error listing models"})
		return
	}

	note := "Use models with TEXT output modality for chat"
	if fallback {
		note = "Limited list - enable full model access in the Bedrock console"
	}
	c.JSON(http.StatusOK, gin.H{
		"models":          models,
		"count":           len(models),
		"current_default": s.defaultModel,
		"note":            note,
	})
}

// errorStatus maps a chat error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	var chatErr *chat.Error
	if !errors.As(err, &chatErr) {
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
	switch chatErr.Code {
	case chat.ErrorInvalidInput:
		return http.StatusBadRequest, string(chatErr.Code)
	case chat.ErrorNotFound:
		return http.StatusNotFound, string(chatErr.Code)
	case chat.ErrorInference:
		return http.StatusBadGateway, string(chatErr.Code)
	case chat.ErrorStorage:
		return http.StatusInternalServerError, string(chatErr.Code)
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
