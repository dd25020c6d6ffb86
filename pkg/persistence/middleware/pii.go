package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/actbot/pkg/ports"
)

// Mask replaces the value of every masked field.
const Mask = "***"

// DefaultPIIFields matches the answer fields that identify a person.
var DefaultPIIFields = []string{"^first_name$", "^last_name$", "^email$", "^location$"}

// PIIMasker redacts collaborator payloads before they leave the process.
// Keys matching any pattern have their values replaced by Mask; nested maps are
// walked. Nil values, which signal a removed field, are passed through.
type PIIMasker struct {
	patterns []*regexp.Regexp
}

// NewPIIMasker compiles the key patterns.
func NewPIIMasker(patternStrings []string) (*PIIMasker, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return &PIIMasker{patterns: patterns}, nil
}

// MaskFields returns a masked deep copy of m.
func (p *PIIMasker) MaskFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := deepCopyMap(m)
	maskMap(out, p.patterns)
	return out
}

// Persister wraps an AnswerPersister.
func (p *PIIMasker) Persister(next ports.AnswerPersister) ports.AnswerPersister {
	return &maskedPersister{next: next, masker: p}
}

// Recorder wraps an EventRecorder.
func (p *PIIMasker) Recorder(next ports.EventRecorder) ports.EventRecorder {
	return &maskedRecorder{next: next, masker: p}
}

type maskedPersister struct {
	next   ports.AnswerPersister
	masker *PIIMasker
}

func (m *maskedPersister) PersistAnswer(ctx context.Context, identity string, fields map[string]any) error {
	return m.next.PersistAnswer(ctx, identity, m.masker.MaskFields(fields))
}

type maskedRecorder struct {
	next   ports.EventRecorder
	masker *PIIMasker
}

func (m *maskedRecorder) RecordEvent(ctx context.Context, name, identity string, details map[string]any) error {
	return m.next.RecordEvent(ctx, name, identity, m.masker.MaskFields(details))
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
			continue
		}
		if v == nil {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}
	}
}
