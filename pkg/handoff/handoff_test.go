package handoff_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/handoff"
)

func sample() domain.Answers {
	return domain.Answers{
		FirstName:     "Ada",
		Email:         "ada@example.com",
		Purchase:      domain.TierPlaybook,
		Challenge:     "Sales",
		Q5Keywords:    []string{"sales", "clients"},
		Q5EmotiveWord: "urgent",
	}
}

func TestDecode_FromJSON(t *testing.T) {
	data, err := json.Marshal(handoff.Encode(sample()))
	require.NoError(t, err)

	var snap handoff.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	got, err := handoff.Decode(snap)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestDecode_Sanitizes(t *testing.T) {
	snap := handoff.Encode(sample())
	snap["first_name"] = "  Ada\x00 "
	snap["business_name"] = "Acme\nLabs"

	got, err := handoff.Decode(snap)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Acme Labs", got.BusinessName)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(handoff.Snapshot)
		want   string
	}{
		{"unknown key", func(s handoff.Snapshot) { s["is_admin"] = true }, "is_admin"},
		{"missing email", func(s handoff.Snapshot) { delete(s, "email") }, "email is required"},
		{"malformed email", func(s handoff.Snapshot) { s["email"] = "ada@" }, "malformed"},
		{"unknown tier", func(s handoff.Snapshot) { s["purchase"] = "Platinum" }, "not a tier"},
		{"unknown final tier", func(s handoff.Snapshot) { s["final_purchase"] = "Free" }, "not a tier"},
		{"unknown keyword", func(s handoff.Snapshot) { s["q5_keywords"] = []any{"crypto"} }, "unknown keyword"},
		{"too many keywords", func(s handoff.Snapshot) { s["q5_keywords"] = []any{"sales", "team", "idea"} }, "at most 2"},
		{"unknown emotive word", func(s handoff.Snapshot) { s["q5_emotive_word"] = "meh" }, "emotive"},
		{"unknown challenge", func(s handoff.Snapshot) { s["challenge"] = "<script>alert(1)</script>" }, "challenge"},
		{"unknown business stage", func(s handoff.Snapshot) { s["business_stage"] = "Bankrupt" }, "business_stage"},
		{"unknown support plan", func(s handoff.Snapshot) { s["support_calls"] = "99 Years ($1)" }, "support_calls"},
		{"wrong type", func(s handoff.Snapshot) { s["first_name"] = 42 }, "first_name"},
		{"oversized", func(s handoff.Snapshot) { s["limits"] = strings.Repeat("x", 5000) }, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := handoff.Encode(sample())
			tt.mutate(snap)
			_, err := handoff.Decode(snap)
			require.Error(t, err)
			assert.ErrorIs(t, err, handoff.ErrInvalidSnapshot)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_AcceptsOfferedOptions(t *testing.T) {
	snap := handoff.Encode(sample())
	snap["challenge"] = "Other"
	snap["business_stage"] = "Struggling"
	snap["support_calls"] = "No"

	got, err := handoff.Decode(snap)
	require.NoError(t, err)
	assert.Equal(t, "Struggling", got.BusinessStage)
	assert.Equal(t, "No", got.SupportCalls)
}

func TestDecode_RejectsEveryForgedVocabulary(t *testing.T) {
	_, err := handoff.Decode(handoff.Snapshot{
		"email":          "eve@example.com",
		"challenge":      "<script>alert(1)</script>",
		"business_stage": "Bankrupt",
		"support_calls":  "99 Years ($1)",
	})
	require.ErrorIs(t, err, handoff.ErrInvalidSnapshot)
	for _, field := range []string{"challenge", "business_stage", "support_calls"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestResumeOptions_StageBounds(t *testing.T) {
	snap := handoff.Encode(sample())

	_, err := handoff.ResumeOptions("", 3, snap)
	assert.ErrorIs(t, err, handoff.ErrInvalidSnapshot)
	_, err = handoff.ResumeOptions("", 19, snap)
	assert.ErrorIs(t, err, handoff.ErrInvalidSnapshot)

	opts, err := handoff.ResumeOptions("guest_1", 4, snap)
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Stage)
	assert.Equal(t, "guest_1", opts.SessionID)
	assert.Equal(t, "Ada", opts.Answers.FirstName)
}

func TestToken(t *testing.T) {
	token, err := handoff.EncodeToken(6, sample())
	require.NoError(t, err)
	assert.NotContains(t, token, "=")

	opts, err := handoff.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, 6, opts.Stage)
	assert.Equal(t, sample(), opts.Answers)

	_, err = handoff.DecodeToken("%%%")
	assert.ErrorIs(t, err, handoff.ErrInvalidSnapshot)
}
