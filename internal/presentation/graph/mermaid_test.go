package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/actbot/internal/presentation/graph"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		stages   []runtime.StageDefinition
		routes   []runtime.Route
		contains []string
	}{
		{
			name: "Shapes",
			stages: []runtime.StageDefinition{
				{Number: 1, Kind: domain.InputFreeText, Label: "Hello"},
				{Number: 2, Kind: domain.InputChoice, Label: "Pick"},
				{Number: 3, Kind: domain.InputFreeText, Label: "Type"},
				{Number: 18, Kind: domain.InputTerminal, Label: "Done"},
			},
			contains: []string{
				`s1(("1. Hello"))`,
				`s2{"2. Pick"}`,
				`s3[/"3. Type"/]`,
				`s18[["18. Done"]]`,
			},
		},
		{
			name:   "Conditional Edge Escaping",
			routes: []runtime.Route{{From: 4, To: 15, Condition: `say "growth"`}},
			contains: []string{
				`s4 -- "say 'growth'" --> s15`,
			},
		},
		{
			name:     "Default Edge",
			routes:   []runtime.Route{{From: 7, To: 8}},
			contains: []string{"s7 --> s8"},
		},
		{
			name:     "Back Edge",
			stages:   []runtime.StageDefinition{{Number: 6, Kind: domain.InputChoice, Label: "Six"}},
			contains: []string{"s6 -. back .-> s5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(tt.stages, tt.routes, nil)
			assert.True(t, strings.HasPrefix(out, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "classDef")
		})
	}
}

func TestStages_Overlay(t *testing.T) {
	out := graph.Stages(&graph.Overlay{Visited: []int{1, 2, 2, 3, 99}, Current: 3})

	assert.Contains(t, out, `s1(("1. Let's kick things off!"))`)
	assert.Contains(t, out, `s1 -- "bypass token" --> s18`)
	assert.Contains(t, out, "class s1 visited;")
	assert.Equal(t, 1, strings.Count(out, "class s2 visited;"))
	assert.NotContains(t, out, "class s3 visited;")
	assert.NotContains(t, out, "s99")
	assert.Contains(t, out, "class s3 current;")
	assert.NotContains(t, out, "s4 -. back .-> s3")
	assert.Contains(t, out, "s5 -. back .-> s4")
}

func TestSessionOverlay(t *testing.T) {
	assert.Nil(t, graph.SessionOverlay(nil))

	s := domain.NewSession("guest_graph", time.Now())
	s.Stage = 4
	o := graph.SessionOverlay(s)
	assert.Equal(t, 4, o.Current)
	assert.Equal(t, []int{1, 2, 3}, o.Visited)
	assert.Contains(t, graph.Stages(o), "class s4 current;")
}
