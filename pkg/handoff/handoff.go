// Package handoff carries a partially completed interview across the resume boundary.
//
// A snapshot is the flat map form of domain.Answers. It crosses a process or UI
// boundary, so decoding treats it as untrusted: unknown keys are refused, strings are
// sanitized and every field with a constrained vocabulary is checked again.
package handoff

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/actbot/internal/validator"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/signals"
)

// ErrInvalidSnapshot is wrapped by every decoding and validation failure.
var ErrInvalidSnapshot = errors.New("invalid handoff snapshot")

// Snapshot is the serialized answers map.
type Snapshot map[string]any

// Token is the payload of an encoded handoff token.
type Token struct {
	Stage   int      `json:"stage"`
	Answers Snapshot `json:"answers"`
}

// Encode flattens answers into a snapshot. Unset fields are omitted.
func Encode(a domain.Answers) Snapshot {
	return Snapshot(a.Fields())
}

// Decode rebuilds and re-validates answers from an untrusted snapshot.
func Decode(snap Snapshot) (domain.Answers, error) {
	var a domain.Answers
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  sanitizeHook,
		ErrorUnused: true,
		Result:      &a,
		TagName:     "mapstructure",
	})
	if err != nil {
		return domain.Answers{}, err
	}
	if err := dec.Decode(map[string]any(snap)); err != nil {
		return domain.Answers{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := Validate(a); err != nil {
		return domain.Answers{}, err
	}
	return a, nil
}

func sanitizeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.String {
		return data, nil
	}
	return validator.Sanitize(reflect.ValueOf(data).String())
}

// Validate checks the fields whose values are constrained by the interview.
func Validate(a domain.Answers) error {
	var errs []error
	if a.Email == "" {
		errs = append(errs, errors.New("email is required to resume"))
	} else if _, ok := validator.Email(a.Email); !ok {
		errs = append(errs, fmt.Errorf("email %q is malformed", a.Email))
	}
	for _, f := range []struct {
		name, value string
		allowed     []string
	}{
		{"challenge", a.Challenge, domain.Categories},
		{"business_stage", a.BusinessStage, domain.BusinessStages},
		{"support_calls", a.SupportCalls, domain.SupportPlans},
	} {
		if f.value != "" && !slices.Contains(f.allowed, f.value) {
			errs = append(errs, fmt.Errorf("%s %q is not an offered option", f.name, f.value))
		}
	}
	for field, tier := range map[string]string{"purchase": a.Purchase, "final_purchase": a.FinalPurchase} {
		if tier != "" && !domain.IsTier(tier) {
			errs = append(errs, fmt.Errorf("%s %q is not a tier", field, tier))
		}
	}
	if len(a.Q5Keywords) > 2 {
		errs = append(errs, fmt.Errorf("at most 2 keywords, got %d", len(a.Q5Keywords)))
	}
	for _, kw := range a.Q5Keywords {
		if !slices.Contains(signals.Keywords, kw) {
			errs = append(errs, fmt.Errorf("unknown keyword %q", kw))
		}
	}
	if a.Q5EmotiveWord != "" && !slices.Contains(signals.Emotive, a.Q5EmotiveWord) {
		errs = append(errs, fmt.Errorf("unknown emotive word %q", a.Q5EmotiveWord))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(errs...))
	}
	return nil
}

// ResumeOptions decodes snap and checks that stage is a valid resume point.
func ResumeOptions(sessionID string, stage int, snap Snapshot) (domain.ResumeOptions, error) {
	if stage < domain.ResumeStage || stage > domain.LastStage {
		return domain.ResumeOptions{}, fmt.Errorf("%w: stage %d is outside %d..%d",
			ErrInvalidSnapshot, stage, domain.ResumeStage, domain.LastStage)
	}
	a, err := Decode(snap)
	if err != nil {
		return domain.ResumeOptions{}, err
	}
	return domain.ResumeOptions{SessionID: sessionID, Answers: a, Stage: stage}, nil
}

// EncodeToken packs a stage and answers into an opaque URL-safe token.
func EncodeToken(stage int, a domain.Answers) (string, error) {
	data, err := json.Marshal(Token{Stage: stage, Answers: Encode(a)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal handoff token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken unpacks and re-validates a token produced by EncodeToken.
func DecodeToken(token string) (domain.ResumeOptions, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return domain.ResumeOptions{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.ResumeOptions{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return ResumeOptions("", t.Stage, t.Answers)
}
