package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, time.Now().UTC().Truncate(time.Second))
		s.Stage = 6
		s.Score = domain.Score{Savings: 3500, Hours: 7.5}
		s.Answers.FirstName = "Ada"
		s.Answers.Q5Keywords = []string{"clients", "sales"}
		s.Lifecycle.TosAccepted = true
		s.Lifecycle.ActivityToken = 9
		s.Say(domain.RoleBot, "hello").Say(domain.RoleUser, "hi")

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.Stage, loaded.Stage)
		assert.Equal(t, s.Score, loaded.Score)
		assert.Equal(t, s.Answers, loaded.Answers)
		assert.Equal(t, s.Transcript, loaded.Transcript)
		assert.True(t, loaded.Lifecycle.TosAccepted)
		assert.Equal(t, uint64(9), loaded.Lifecycle.ActivityToken)
		assert.True(t, s.Lifecycle.LastActivityAt.Equal(loaded.Lifecycle.LastActivityAt))
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Stage = 12

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 6, again.Stage)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID, time.Now())))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, time.Now()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, time.Now()))

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
