// Package signals extracts keyword and emotive signals from free-text answers.
package signals

import "strings"

// Vocabularies recognised by Extract.
var (
	Keywords = []string{"sales", "clients", "revenue", "idea", "marketing", "leads", "efficiency", "team"}
	Emotive  = []string{"cratering", "struggling", "frustration", "losing", "urgent"}
)

const (
	maxKeywords = 2
	maxEmotive  = 1
)

// Signals is the result of an extraction.
type Signals struct {
	Keywords    []string `json:"keywords"`
	EmotiveWord string   `json:"emotive_word,omitempty"`
}

// Extract returns at most two vocabulary keywords and at most one emotive word,
// in the order they first appear in text.
func Extract(text string) Signals {
	s := Signals{Keywords: Match(text, Keywords, maxKeywords)}
	if emotive := Match(text, Emotive, maxEmotive); len(emotive) > 0 {
		s.EmotiveWord = emotive[0]
	}
	return s
}

// Match returns up to limit distinct vocabulary words found in text, first matches winning.
// A limit <= 0 means no limit.
func Match(text string, vocab []string, limit int) []string {
	known := make(map[string]struct{}, len(vocab))
	for _, w := range vocab {
		known[strings.ToLower(w)] = struct{}{}
	}

	found := []string{}
	seen := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		if limit > 0 && len(found) >= limit {
			break
		}
		if _, ok := known[tok]; !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		found = append(found, tok)
	}
	return found
}

// Tokenize lowercases text, splits it on whitespace and strips sentence punctuation.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Map(func(r rune) rune {
			switch r {
			case '.', ',', '!', '?':
				return -1
			}
			return r
		}, f)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
