package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
)

// Collaborator keeps persisted answers, recorded events and resume links in memory.
// It is the default backend of the CLI and the test double of the service.
type Collaborator struct {
	mu      sync.RWMutex
	answers map[string]map[string]any
	events  []domain.RecordedEvent
	links   []ports.ResumeLink
	now     func() time.Time
}

// NewCollaborator creates an empty in-memory collaborator.
func NewCollaborator() *Collaborator {
	return &Collaborator{
		answers: make(map[string]map[string]any),
		now:     time.Now,
	}
}

// PersistAnswer merges fields into the identity's record. Nil values remove a field.
func (c *Collaborator) PersistAnswer(ctx context.Context, identity string, fields map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.answers[identity]
	if !ok {
		rec = make(map[string]any)
		c.answers[identity] = rec
	}
	for k, v := range fields {
		if v == nil {
			delete(rec, k)
			continue
		}
		rec[k] = v
	}
	return nil
}

// RecordEvent appends an event.
func (c *Collaborator) RecordEvent(ctx context.Context, name, identity string, details map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, domain.RecordedEvent{
		Name:      name,
		SessionID: identity,
		Details:   maps.Clone(details),
		At:        c.now(),
	})
	return nil
}

// EmailResumeLink stores the link instead of sending it.
func (c *Collaborator) EmailResumeLink(ctx context.Context, email string, stage int, answers map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.links = append(c.links, ports.ResumeLink{
		Email:   email,
		Stage:   stage,
		Answers: maps.Clone(answers),
		SentAt:  c.now(),
	})
	return nil
}

// Answers returns a copy of the persisted fields of identity.
func (c *Collaborator) Answers(ctx context.Context, identity string) (map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any)
	maps.Copy(out, c.answers[identity])
	return out, nil
}

// Events returns the events recorded for identity, oldest first.
// An empty identity returns every event.
func (c *Collaborator) Events(ctx context.Context, identity string) ([]domain.RecordedEvent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.RecordedEvent
	for _, ev := range c.events {
		if identity == "" || ev.SessionID == identity {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ResumeLinks returns the links sent to email, oldest first.
func (c *Collaborator) ResumeLinks(ctx context.Context, email string) ([]ports.ResumeLink, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []ports.ResumeLink
	for _, l := range c.links {
		if l.Email == email {
			out = append(out, l)
		}
	}
	return out, nil
}
