package signals_test

import (
	"testing"

	"github.com/aretw0/actbot/pkg/signals"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantKeys    []string
		wantEmotive string
	}{
		{
			name:        "losing clients",
			text:        "We keep losing clients to cheaper competitors every single quarter.",
			wantKeys:    []string{"clients"},
			wantEmotive: "losing",
		},
		{
			name:     "limit of two keywords in token order",
			text:     "Team, marketing, and sales are all behind; revenue too!",
			wantKeys: []string{"team", "marketing"},
		},
		{
			name:        "single emotive word wins first",
			text:        "Revenue is CRATERING and it's urgent.",
			wantKeys:    []string{"revenue"},
			wantEmotive: "cratering",
		},
		{
			name:     "no matches",
			text:     "Nothing relevant here",
			wantKeys: []string{},
		},
		{
			name:     "punctuation is stripped but words are whole tokens",
			text:     "salesforce is our tool. Leads?",
			wantKeys: []string{"leads"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signals.Extract(tt.text)
			assert.Equal(t, tt.wantKeys, got.Keywords)
			assert.Equal(t, tt.wantEmotive, got.EmotiveWord)
		})
	}
}

func TestMatch_Deduplicates(t *testing.T) {
	got := signals.Match("sales sales clients", signals.Keywords, 2)
	assert.Equal(t, []string{"sales", "clients"}, got)
}

func TestMatch_WholeTokensOnly(t *testing.T) {
	assert.Equal(t, []string{"budget"}, signals.Match("Our budget is tight.", []string{"budget"}, 1))
	assert.Empty(t, signals.Match("budgetary constraints", []string{"budget"}, 1))
}
