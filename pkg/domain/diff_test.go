package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	base := NewSession("sess-1", now)
	base.Say(RoleBot, "hello")

	advanced := base.Clone()
	advanced.Stage = 2
	advanced.Answers.FirstName = "Ada"
	advanced.Say(RoleUser, "ada lovelace").Say(RoleBot, "Great to meet you, Ada!")

	rewound := advanced.Clone()
	rewound.Transcript = rewound.Transcript[:1]

	stage2 := 2

	tests := []struct {
		name     string
		old      *Session
		new      *Session
		wantDiff *SessionDiff
	}{
		{
			name:     "No Changes",
			old:      base,
			new:      base.Clone(),
			wantDiff: nil,
		},
		{
			name: "Answer And Stage Change",
			old:  base,
			new:  advanced,
			wantDiff: &SessionDiff{
				SessionID:  "sess-1",
				Stage:      &stage2,
				Answers:    map[string]any{"first_name": "Ada"},
				Transcript: advanced.Transcript[1:],
			},
		},
		{
			name: "Transcript Truncation",
			old:  advanced,
			new:  rewound,
			wantDiff: &SessionDiff{
				SessionID:  "sess-1",
				Transcript: rewound.Transcript,
				Truncated:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(tt.wantDiff)
				t.Errorf("Diff() mismatch\ngot:  %s\nwant: %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDiff_InitialLoad(t *testing.T) {
	s := NewSession("sess-2", time.Now())
	s.Say(RoleBot, "hi")

	d := Diff(nil, s)
	if d == nil {
		t.Fatal("expected diff for initial load")
	}
	if d.Stage == nil || *d.Stage != 1 {
		t.Errorf("expected stage 1 in initial diff, got %v", d.Stage)
	}
	if len(d.Transcript) != 1 {
		t.Errorf("expected full transcript, got %d entries", len(d.Transcript))
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"session_id":"sess-2"`) {
		t.Errorf("unexpected json: %s", data)
	}
}

func TestDiffAnswers_Deletion(t *testing.T) {
	old := Answers{FirstName: "Ada", ReferrerName: "Bob", Q5Keywords: []string{"sales"}}
	next := Answers{ReferrerName: "Bob"}

	delta := DiffAnswers(old, next)
	want := map[string]any{"first_name": nil, "q5_keywords": nil}
	if !reflect.DeepEqual(delta, want) {
		t.Errorf("DiffAnswers() = %v, want %v", delta, want)
	}
}
