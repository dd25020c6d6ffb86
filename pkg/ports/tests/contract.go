package tests

import (
	"context"
	"testing"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
)

// Collaborator is a backend that implements every collaborator port and can be read back.
type Collaborator interface {
	ports.AnswerPersister
	ports.EventRecorder
	ports.ResumeMailer

	Answers(ctx context.Context, identity string) (map[string]any, error)
	Events(ctx context.Context, identity string) ([]domain.RecordedEvent, error)
	ResumeLinks(ctx context.Context, email string) ([]ports.ResumeLink, error)
}

// CollaboratorContractTest is a reusable test suite that verifies if an adapter complies with
// the collaborator ports.
func CollaboratorContractTest(t *testing.T, c Collaborator) {
	t.Helper()
	ctx := context.Background()

	t.Run("PersistAnswer_Merges", func(t *testing.T) {
		id := "ada@example.com"
		if err := c.PersistAnswer(ctx, id, map[string]any{"first_name": "Ada", "last_name": "Lovelace"}); err != nil {
			t.Fatalf("unexpected error persisting: %v", err)
		}
		if err := c.PersistAnswer(ctx, id, map[string]any{"email": id, "last_name": nil}); err != nil {
			t.Fatalf("unexpected error persisting: %v", err)
		}

		got, err := c.Answers(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error reading answers: %v", err)
		}
		if got["first_name"] != "Ada" || got["email"] != id {
			t.Errorf("answers not merged: %v", got)
		}
		if _, ok := got["last_name"]; ok {
			t.Errorf("nil field should be removed, got %v", got["last_name"])
		}
	})

	t.Run("PersistAnswer_Isolated", func(t *testing.T) {
		got, err := c.Answers(ctx, "guest_unknown")
		if err != nil {
			t.Fatalf("unexpected error reading answers: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no answers for unknown identity, got %v", got)
		}
	})

	t.Run("RecordEvent_Ordered", func(t *testing.T) {
		id := "guest_events"
		names := []string{domain.EventHelpButtonClicked, domain.EventBackButtonUsed, domain.EventSessionTimeout}
		for i, name := range names {
			if err := c.RecordEvent(ctx, name, id, map[string]any{"stage": i + 5}); err != nil {
				t.Fatalf("unexpected error recording %s: %v", name, err)
			}
		}

		events, err := c.Events(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error listing events: %v", err)
		}
		if len(events) != len(names) {
			t.Fatalf("expected %d events, got %d", len(names), len(events))
		}
		for i, ev := range events {
			if ev.Name != names[i] {
				t.Errorf("event %d: got %q, want %q", i, ev.Name, names[i])
			}
			if ev.SessionID != id {
				t.Errorf("event %d: got session %q, want %q", i, ev.SessionID, id)
			}
			if ev.Details["stage"] == nil {
				t.Errorf("event %d: details lost", i)
			}
		}
	})

	t.Run("EmailResumeLink", func(t *testing.T) {
		email := "grace@example.com"
		if err := c.EmailResumeLink(ctx, email, 7, map[string]any{"first_name": "Grace"}); err != nil {
			t.Fatalf("unexpected error sending link: %v", err)
		}

		links, err := c.ResumeLinks(ctx, email)
		if err != nil {
			t.Fatalf("unexpected error listing links: %v", err)
		}
		if len(links) != 1 {
			t.Fatalf("expected 1 link, got %d", len(links))
		}
		if links[0].Stage != 7 || links[0].Answers["first_name"] != "Grace" {
			t.Errorf("unexpected link: %+v", links[0])
		}
	})
}
