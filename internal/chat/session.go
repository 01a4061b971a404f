package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bedrock-chatbot/internal/domain"
)

// DefaultSystemPrompt seeds every new session's transcript. The system turn
// is part of every inference request but is never written to durable history.
const DefaultSystemPrompt = "You are a helpful AI assistant powered by AWS. Be concise and friendly."

// InferenceClient generates an assistant reply from an ordered transcript.
type InferenceClient interface {
	Generate(ctx context.Context, model string, turns []domain.Turn) (string, error)
}

// HistoryStore persists and retrieves conversation turns keyed by session id.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, turn domain.Turn) error
	Query(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// Session owns the in-memory transcript for one conversation and mediates
// between the inference backend and the durable history store. All transcript
// mutations go through Respond, which serializes concurrent calls so turn
// order always matches call order.
type Session struct {
	id        string
	model     string
	region    string
	createdAt time.Time

	llm    InferenceClient
	store  HistoryStore
	logger *slog.Logger

	mu         sync.Mutex
	transcript []domain.Turn
}

// NewSession creates a session whose transcript starts with the given system
// prompt (DefaultSystemPrompt when empty).
func NewSession(id, model, region, systemPrompt string, llm InferenceClient, store HistoryStore, logger *slog.Logger) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("chat: session id must not be empty")
	}
	if llm == nil {
		return nil, errors.New("chat: inference client must not be nil")
	}
	if store == nil {
		return nil, errors.New("chat: history store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Session{
		id:         id,
		model:      model,
		region:     region,
		createdAt:  time.Now().UTC(),
		llm:        llm,
		store:      store,
		logger:     logger,
		transcript: []domain.Turn{domain.NewTurn(domain.RoleSystem, systemPrompt)},
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Model returns the inference model bound at creation time.
func (s *Session) Model() string { return s.model }

// Region returns the backend region locator.
func (s *Session) Region() string { return s.region }

// Respond appends the user turn, asks the inference backend for a reply with
// the full transcript as context, and appends the assistant turn on success.
// Both turns are persisted best-effort: a storage failure is logged and the
// conversation continues without persistence. An inference failure leaves the
// user turn in place, appends nothing for the assistant, and surfaces as a
// typed INFERENCE_ERROR; it never terminates the session.
func (s *Session) Respond(ctx context.Context, userInput string) (string, error) {
	if strings.TrimSpace(userInput) == "" {
		return "", newError(ErrorInvalidInput, "empty_message", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userTurn := domain.NewTurn(domain.RoleUser, userInput)
	s.transcript = append(s.transcript, userTurn)
	s.persist(ctx, userTurn)

	snapshot := make([]domain.Turn, len(s.transcript))
	copy(snapshot, s.transcript)

	reply, err := s.llm.Generate(ctx, s.model, snapshot)
	if err != nil {
		s.logger.Error("inference request failed", "session_id", s.id, "model", s.model, "err", err)
		return "", newError(ErrorInference, "generate_error", err)
	}

	assistantTurn := domain.NewTurn(domain.RoleAssistant, reply)
	s.transcript = append(s.transcript, assistantTurn)
	s.persist(ctx, assistantTurn)

	return reply, nil
}

// persist writes one turn to the history store. Persistence is best-effort;
// failures never abort the conversation.
func (s *Session) persist(ctx context.Context, turn domain.Turn) {
	if err := s.store.Append(ctx, s.id, turn); err != nil {
		s.logger.Warn("could not persist turn, conversation continues without persistence",
			"session_id", s.id, "role", turn.Role, "err", err)
	}
}

// History returns the durable turns for the given session id, which may be a
// different session than this one, including ids with no live session at all.
// Store errors are logged and swallowed; the result is then empty.
func (s *Session) History(ctx context.Context, sessionID string) []domain.Turn {
	if strings.TrimSpace(sessionID) == "" {
		sessionID = s.id
	}
	turns, err := s.store.Query(ctx, sessionID)
	if err != nil {
		s.logger.Warn("could not retrieve history", "session_id", sessionID, "err", err)
		return []domain.Turn{}
	}
	return turns
}

// Summary reports in-memory turn counts by role. No I/O.
func (s *Session) Summary() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := domain.Summary{
		SessionID: s.id,
		Model:     s.model,
		Region:    s.region,
		CreatedAt: s.createdAt,
	}
	for _, turn := range s.transcript {
		switch turn.Role {
		case domain.RoleUser:
			sum.UserMessages++
		case domain.RoleAssistant:
			sum.AssistantMessages++
		}
	}
	return sum
}
