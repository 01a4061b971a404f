package chat

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bedrock-chatbot/internal/domain"
)

// Settings are the process-wide defaults applied to new sessions.
type Settings struct {
	Region       string
	DefaultModel string
	SystemPrompt string
}

// Registry maps session identifiers to live Session instances. It is the
// single authority for which sessions are active in this process; the mapping
// itself is never persisted. Sessions live until explicitly removed or the
// process exits: there is no TTL or capacity bound, so a long-running server
// accumulates sessions until callers delete them.
type Registry struct {
	llm      InferenceClient
	store    HistoryStore
	settings Settings
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry bound to the given collaborators.
func NewRegistry(llm InferenceClient, store HistoryStore, settings Settings, logger *slog.Logger) (*Registry, error) {
	if llm == nil {
		return nil, errors.New("chat: inference client must not be nil")
	}
	if store == nil {
		return nil, errors.New("chat: history store must not be nil")
	}
	if strings.TrimSpace(settings.DefaultModel) == "" {
		return nil, errors.New("chat: default model must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		llm:      llm,
		store:    store,
		settings: settings,
		logger:   logger,
		sessions: make(map[string]*Session),
	}, nil
}

// GetOrCreate returns the live session for sessionID, creating and
// registering one when absent. An empty sessionID gets a generated id. The
// model override only applies at creation time; an existing session keeps the
// model it was created with.
func (r *Registry) GetOrCreate(sessionID, modelID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}

	model := strings.TrimSpace(modelID)
	if model == "" {
		model = r.settings.DefaultModel
	}
	s, err := NewSession(sessionID, model, r.settings.Region, r.settings.SystemPrompt, r.llm, r.store, r.logger)
	if err != nil {
		return nil, err
	}
	r.sessions[sessionID] = s
	r.logger.Info("session created", "session_id", sessionID, "model", model)
	return s, nil
}

// Get returns the live session for sessionID or a NOT_FOUND error.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, newError(ErrorNotFound, "session_not_found", nil)
	}
	return s, nil
}

// List returns the active session ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove unregisters a session and drops its in-memory transcript. Durable
// history is untouched; History for the same id keeps returning persisted
// turns, and a later GetOrCreate under the same id starts a fresh transcript
// without replaying them. Reports whether a session was actually present.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	r.logger.Info("session removed", "session_id", sessionID)
	return true
}

// ChatResult is the outcome of one chat exchange routed through the registry.
type ChatResult struct {
	Response  string
	SessionID string
	Model     string
	Region    string
}

// Chat routes one user message to the session for sessionID, creating the
// session first when needed.
func (r *Registry) Chat(ctx context.Context, sessionID, modelID, message string) (ChatResult, error) {
	sess, err := r.GetOrCreate(sessionID, modelID)
	if err != nil {
		return ChatResult{}, err
	}
	reply, err := sess.Respond(ctx, message)
	if err != nil {
		return ChatResult{}, err
	}
	return ChatResult{
		Response:  reply,
		SessionID: sess.ID(),
		Model:     sess.Model(),
		Region:    sess.Region(),
	}, nil
}

// History returns the durable turns for any session id, live or not. Store
// errors are logged and swallowed; the result is then empty.
func (r *Registry) History(ctx context.Context, sessionID string) []domain.Turn {
	turns, err := r.store.Query(ctx, sessionID)
	if err != nil {
		r.logger.Warn("could not retrieve history", "session_id", sessionID, "err", err)
		return []domain.Turn{}
	}
	return turns
}
