package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/pkg/adapters/memory"
	"github.com/aretw0/actbot/pkg/persistence/middleware"
)

func TestPIIMasker_Persister(t *testing.T) {
	masker, err := middleware.NewPIIMasker(middleware.DefaultPIIFields)
	require.NoError(t, err)
	backend := memory.NewCollaborator()
	persister := masker.Persister(backend)
	ctx := context.Background()

	fields := map[string]any{
		"first_name":    "Ada",
		"email":         "ada@example.com",
		"business_name": "Analytical Engines",
		"last_name":     nil,
	}
	require.NoError(t, persister.PersistAnswer(ctx, "guest_1", fields))

	assert.Equal(t, "Ada", fields["first_name"], "caller map must not be modified")

	got, err := backend.Answers(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, got["first_name"])
	assert.Equal(t, middleware.Mask, got["email"])
	assert.Equal(t, "Analytical Engines", got["business_name"])
}

func TestPIIMasker_RecorderNested(t *testing.T) {
	masker, err := middleware.NewPIIMasker([]string{"email"})
	require.NoError(t, err)
	backend := memory.NewCollaborator()
	recorder := masker.Recorder(backend)
	ctx := context.Background()

	require.NoError(t, recorder.RecordEvent(ctx, "SaveForLaterUsed", "guest_2", map[string]any{
		"stage":   7,
		"answers": map[string]any{"email": "x@example.com", "budget": "Flexible"},
	}))

	events, err := backend.Events(ctx, "guest_2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	nested := events[0].Details["answers"].(map[string]any)
	assert.Equal(t, middleware.Mask, nested["email"])
	assert.Equal(t, "Flexible", nested["budget"])
	assert.Equal(t, 7, events[0].Details["stage"])
}

func TestNewPIIMasker_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMasker([]string{"("})
	assert.Error(t, err)
}
