package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
)

// Overlay contains session data to visualize on the graph.
type Overlay struct {
	Visited []int
	Current int
}

// GenerateMermaid produces a Mermaid flowchart of the interview stages.
// It applies semantic styling:
// - First stage: ((Circle))
// - Choice stages: {Rhombus}
// - Terminal stage: [[Subroutine]]
// - Text input: [/Parallelogram/]
// Stages that allow back navigation get a dotted edge to their predecessor.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(stages []runtime.StageDefinition, routes []runtime.Route, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, st := range stages {
		opener, closer := "[/", "/]"
		switch {
		case st.Number == domain.FirstStage:
			opener, closer = "((", "))"
		case st.Kind == domain.InputTerminal:
			opener, closer = "[[", "]]"
		case st.Kind == domain.InputChoice:
			opener, closer = "{", "}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%d. %s\"%s\n", nodeID(st.Number), opener, st.Number, escape(st.Label), closer))
	}

	for _, r := range routes {
		arrow := "-->"
		if r.Condition != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(r.Condition))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", nodeID(r.From), arrow, nodeID(r.To)))
	}

	for _, st := range stages {
		if domain.BackEnabled(st.Number) {
			sb.WriteString(fmt.Sprintf("    %s -. back .-> %s\n", nodeID(st.Number), nodeID(st.Number-1)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, n := range overlay.Visited {
			if !seen[n] && domain.ValidStage(n) && n != overlay.Current {
				seen[n] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", nodeID(n)))
			}
		}
		if domain.ValidStage(overlay.Current) {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(overlay.Current)))
		}
	}

	return sb.String()
}

// Stages renders the full stage graph.
func Stages(overlay *Overlay) string {
	return GenerateMermaid(runtime.Stages[domain.FirstStage:], runtime.Routes(), overlay)
}

func nodeID(n int) string {
	return fmt.Sprintf("s%d", n)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// SessionOverlay marks the stages before the current one as visited.
// Skipped stages are not tracked, so a bypassed session shows the full path.
func SessionOverlay(s *domain.Session) *Overlay {
	if s == nil {
		return nil
	}
	o := &Overlay{Current: s.Stage}
	for i := domain.FirstStage; i < s.Stage; i++ {
		o.Visited = append(o.Visited, i)
	}
	return o
}
