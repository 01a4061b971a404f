package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bedrock-chatbot/internal/domain"
)

func newTestRegistry(t *testing.T, llm InferenceClient, store HistoryStore) *Registry {
	t.Helper()
	r, err := NewRegistry(llm, store, Settings{
		Region:       "us-east-1",
		DefaultModel: "default-model",
	}, nil)
	require.NoError(t, err)
	return r
}

func TestNewRegistry_Validates(t *testing.T) {
	_, err := NewRegistry(nil, &stubStore{}, Settings{DefaultModel: "m"}, nil)
	require.Error(t, err)
	_, err = NewRegistry(&stubLLM{}, nil, Settings{DefaultModel: "m"}, nil)
	require.Error(t, err)
	_, err = NewRegistry(&stubLLM{}, &stubStore{}, Settings{}, nil)
	require.Error(t, err)
}

func TestGetOrCreate_GeneratesIDWhenEmpty(t *testing.T) {
	r := newTestRegistry(t, &stubLLM{}, &stubStore{})

	s, err := r.GetOrCreate("", "")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())
	_, err = uuid.Parse(s.ID())
	require.NoError(t, err)
	require.Equal(t, "default-model", s.Model())
}

func TestGetOrCreate_IdentityPreserving(t *testing.T) {
	r := newTestRegistry(t, &stubLLM{}, &stubStore{})

	first, err := r.GetOrCreate("abc", "model-a")
	require.NoError(t, err)
	// The model override on a later call is ignored; the existing instance
	// is returned unchanged.
	second, err := r.GetOrCreate("abc", "model-b")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, "model-a", second.Model())
}

func TestGet_NotFound(t *testing.T) {
	r := newTestRegistry(t, &stubLLM{}, &stubStore{})

	_, err := r.Get("missing")
	requireChatError(t, err, ErrorNotFound)

	s, err := r.GetOrCreate("present", "")
	require.NoError(t, err)
	got, err := r.Get("present")
	require.NoError(t, err)
	require.Same(t, s, got)
}

func TestList_SortedAndIdempotent(t *testing.T) {
	r := newTestRegistry(t, &stubLLM{}, &stubStore{})

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		_, err := r.GetOrCreate(id, "")
		require.NoError(t, err)
	}

	require.Equal(t, []string{"alpha", "bravo", "charlie"}, r.List())
	require.Equal(t, r.List(), r.List())
}

func TestRemove_DropsSessionButNotHistory(t *testing.T) {
	stored := []domain.Turn{domain.NewTurn(domain.RoleUser, "persisted")}
	store := &stubStore{queryOut: stored}
	llm := &stubLLM{reply: "ok"}
	r := newTestRegistry(t, llm, store)

	s, err := r.GetOrCreate("abc", "")
	require.NoError(t, err)
	_, err = s.Respond(context.Background(), "hi")
	require.NoError(t, err)

	require.True(t, r.Remove("abc"))
	require.False(t, r.Remove("abc"))
	require.Empty(t, r.List())

	// Durable history is untouched by removal.
	require.Equal(t, stored, r.History(context.Background(), "abc"))

	// A recreated session under the same id starts with a fresh transcript:
	// summary counts reset even though durable history is nonempty.
	recreated, err := r.GetOrCreate("abc", "")
	require.NoError(t, err)
	require.NotSame(t, s, recreated)
	sum := recreated.Summary()
	require.Zero(t, sum.UserMessages)
	require.Zero(t, sum.AssistantMessages)
}

func TestRegistryHistory_SwallowsStoreErrors(t *testing.T) {
	store := &stubStore{queryErr: errors.New("unreachable")}
	r := newTestRegistry(t, &stubLLM{}, store)

	turns := r.History(context.Background(), "anything")
	require.NotNil(t, turns)
	require.Empty(t, turns)
}

func TestChat_RoutesThroughSession(t *testing.T) {
	llm := &stubLLM{reply: "routed"}
	r := newTestRegistry(t, llm, &stubStore{})

	result, err := r.Chat(context.Background(), "", "", "hi")
	require.NoError(t, err)
	require.Equal(t, "routed", result.Response)
	require.NotEmpty(t, result.SessionID)
	require.Equal(t, "default-model", result.Model)
	require.Equal(t, "us-east-1", result.Region)

	// The same id reaches the same session.
	again, err := r.Chat(context.Background(), result.SessionID, "", "and again")
	require.NoError(t, err)
	require.Equal(t, result.SessionID, again.SessionID)

	s, err := r.Get(result.SessionID)
	require.NoError(t, err)
	require.Equal(t, 2, s.Summary().UserMessages)
}

func TestChat_InferenceErrorSurfacesTyped(t *testing.T) {
	llm := &stubLLM{err: errors.New("down")}
	r := newTestRegistry(t, llm, &stubStore{})

	_, err := r.Chat(context.Background(), "abc", "", "hi")
	requireChatError(t, err, ErrorInference)

	// The session stays registered and consistent.
	s, getErr := r.Get("abc")
	require.NoError(t, getErr)
	require.Equal(t, 1, s.Summary().UserMessages)
}

func TestGetOrCreate_ConcurrentCallsShareOneInstance(t *testing.T) {
	r := newTestRegistry(t, &stubLLM{}, &stubStore{})

	const n = 32
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.GetOrCreate("shared", "")
			require.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, sessions[0], sessions[i])
	}
	require.Equal(t, []string{"shared"}, r.List())
}
