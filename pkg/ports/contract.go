package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		s.Workflow = &domain.WorkflowRef{Name: "retail", Version: "1.0", Digest: "abc", Source: "flowchart TD\nA[a]\n"}
		s.Current = "B"
		s.Path = []string{"A", "B", "A", "B"}
		s.Tasks = []domain.Task{
			{Description: "Return", Status: domain.TaskInProgress, Note: "order #1", CompletionNode: "DONE"},
			{Description: "Return", Status: domain.TaskPending},
		}
		s.UpdatedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.ID, loaded.ID)
		assert.Equal(t, s.Workflow, loaded.Workflow)
		assert.Equal(t, s.Current, loaded.Current)
		assert.Equal(t, s.Path, loaded.Path, "repeats and order survive persistence")
		assert.Equal(t, s.Tasks, loaded.Tasks)
		assert.True(t, s.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Snapshots are isolated", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		s.Path = []string{"A"}
		require.NoError(t, store.Save(ctx, sessionID, s))

		s.Path[0] = "MUTATED"
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, loaded.Path)

		loaded.Path = append(loaded.Path, "B")
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, again.Path)
	})

	t.Run("Save replaces", func(t *testing.T) {
		first := domain.NewSession(sessionID)
		first.Current = "A"
		require.NoError(t, store.Save(ctx, sessionID, first))

		second := domain.NewSession(sessionID)
		second.Current = "B"
		require.NoError(t, store.Save(ctx, sessionID, second))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "B", loaded.Current)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
