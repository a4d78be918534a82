package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "skynet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetSession(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)
	require.Equal(t, "s1", created.SessionID)
	require.Equal(t, StatusActive, created.Status)
	require.NotEmpty(t, created.CreatedAt)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := store.GetSession("s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "/proj", got.ProjectPath)
}

func TestCreateSession_Conflict(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)

	_, err = store.CreateSession("s1", "/other", StatusActive)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSessionExists))
}

func TestGetSession_Absent(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetSession("missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUpdateSessionStatus(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)

	updated, err := store.UpdateSessionStatus("s1", StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, StatusCompleted, updated.Status)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	absent, err := store.UpdateSessionStatus("missing", StatusError)
	require.NoError(t, err)
	require.Nil(t, absent)
}

func TestAppendMessage_Idempotent(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)

	m := Message{
		SessionID: "s1",
		Role:      "user",
		Content:   "hello",
		UUID:      "m1",
		Timestamp: "2024-01-01T00:00:00Z",
	}

	first, err := store.AppendMessage(m)
	require.NoError(t, err)

	// same identity again: no new row, the stored one comes back
	second, err := store.AppendMessage(m)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	count, err := store.MessageCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAppendMessage_SharedUUIDDistinctSeq(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)

	// one assistant line split into a text block and a tool_use block
	_, err = store.AppendMessage(Message{
		SessionID: "s1", Role: "assistant", Content: "hi",
		UUID: "m1", Seq: 0, Timestamp: "2024-01-01T00:00:01Z",
	})
	require.NoError(t, err)
	_, err = store.AppendMessage(Message{
		SessionID: "s1", Role: "assistant",
		UUID: "m1", Seq: 1, Timestamp: "2024-01-01T00:00:01Z",
		ToolName: "Bash", ToolInput: `{"command":"ls"}`,
	})
	require.NoError(t, err)

	count, err := store.MessageCount()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestListMessages_TimestampOrder(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)

	// appended out of order, listed in timestamp order
	for _, m := range []Message{
		{SessionID: "s1", Role: "assistant", Content: "second", UUID: "m2", Timestamp: "2024-01-01T00:00:02Z"},
		{SessionID: "s1", Role: "user", Content: "first", UUID: "m1", Timestamp: "2024-01-01T00:00:01Z"},
	} {
		_, err := store.AppendMessage(m)
		require.NoError(t, err)
	}

	messages, err := store.ListMessages("s1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "first", messages[0].Content)
	require.Equal(t, "second", messages[1].Content)
}

func TestListMessages_Limit(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.AppendMessage(Message{
			SessionID: "s1", Role: "user", Content: "x",
			UUID: string(rune('a' + i)), Timestamp: "2024-01-01T00:00:01Z",
		})
		require.NoError(t, err)
	}

	messages, err := store.ListMessages("s1", 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
}

func TestListSessions_StatusFilter(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/a", StatusActive)
	require.NoError(t, err)
	_, err = store.CreateSession("s2", "/b", StatusCompleted)
	require.NoError(t, err)

	all, err := store.ListSessions("")
	require.NoError(t, err)
	require.Len(t, all, 2)

	active, err := store.ListSessions(StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "s1", active[0].SessionID)
}

func TestSearchMessages(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateSession("s1", "/proj", StatusActive)
	require.NoError(t, err)
	_, err = store.AppendMessage(Message{
		SessionID: "s1", Role: "user",
		Content: "please refactor the ingestion pipeline",
		UUID:    "m1", Timestamp: "2024-01-01T00:00:01Z",
	})
	require.NoError(t, err)

	results, err := store.SearchMessages(SearchOptions{Query: "ingestion"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "s1", results[0].SessionID)
	require.Contains(t, results[0].Snippet, "ingestion")

	none, err := store.SearchMessages(SearchOptions{Query: "nonexistentterm"})
	require.NoError(t, err)
	require.Empty(t, none)
}
