package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"bedrock-chatbot/internal/chat"
)

// chatService is the conversation entry point the handler depends on.
// *chat.Registry satisfies it.
type chatService interface {
	Chat(ctx context.Context, sessionID, modelID, message string) (chat.ChatResult, error)
}

// Handler adapts API Gateway proxy events to the conversation core.
type Handler struct {
	svc    chatService
	logger *slog.Logger
}

// NewHandler creates a Handler for the given chat service.
func NewHandler(svc chatService) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	return &Handler{svc: svc, logger: slog.Default()}, nil
}

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
}

type errorResponse struct {
	Error string            `json:"error"`
	Usage map[string]string `json:"usage,omitempty"`
}

// Handle processes one chat invocation.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(event.Headers)

	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: string(chat.ErrorInvalidInput)}), nil
	}
	if strings.TrimSpace(req.Message) == "" {
		return respond(http.StatusBadRequest, correlationID, errorResponse{
			Error: "Message is required",
			Usage: map[string]string{
				"message":    "Your message here",
				"session_id": "optional-session-id",
				"model_id":   "optional-model-id",
			},
		}), nil
	}

	result, err := h.svc.Chat(ctx, req.SessionID, req.ModelID, req.Message)
	if err != nil {
		status, code := statusForError(err)
		h.logger.Error("chat request failed", "correlation_id", correlationID, "code", code, "err", err)
		return respond(status, correlationID, errorResponse{Error: code}), nil
	}

	return respond(http.StatusOK, correlationID, chatResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
		Model:     result.Model,
		Region:    result.Region,
	}), nil
}

func correlationIDFrom(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func statusForError(err error) (int, string) {
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

func respond(status int, correlationID string, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
			"X-Correlation-Id":            correlationID,
		},
		Body: string(body),
	}
}
