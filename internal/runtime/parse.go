package runtime

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/actbot/internal/validator"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/scoring"
	"github.com/aretw0/actbot/pkg/signals"
)

// Parser writes an accepted answer into the working session of a turn.
// It returns a *domain.ValidationError or *domain.GuardRejection to reject it.
type Parser func(t *Turn) error

func reject(t *Turn, msg string) error {
	return &domain.ValidationError{Stage: t.Session.Stage, Message: msg}
}

func assign(set func(a *domain.Answers, v string)) Parser {
	return func(t *Turn) error {
		set(&t.Session.Answers, t.Answer)
		return nil
	}
}

// assignOption stores the canonical option when the answer names one, the typed text otherwise.
func assignOption(options []string, set func(a *domain.Answers, v string)) Parser {
	return func(t *Turn) error {
		if opt, ok := validator.Canonical(t.Answer, options); ok {
			t.Answer = opt
		}
		set(&t.Session.Answers, t.Answer)
		return nil
	}
}

func parseName(t *Turn) error {
	parts := strings.Fields(t.Answer)
	a := &t.Session.Answers
	a.FirstName = capitalize(parts[0])
	a.LastName = strings.Join(parts[1:], " ")
	if t.Bypass {
		a.Purchase = domain.TierTestPlaybook
		a.FinalPurchase = domain.TierTestPlaybook
	}
	return nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Stage 2 extraction strategies, applied in order. Each only fills fields still empty.
var (
	labelBusiness = regexp.MustCompile(`(?i)business:\s*([^,]+)`)
	labelLocation = regexp.MustCompile(`(?i)location:\s*([^,]+)`)
	labelIndustry = regexp.MustCompile(`(?i)industry:\s*([^,]+)`)
	labelRole     = regexp.MustCompile(`(?i)role:\s*([^.]+)`)
	labelTasks    = regexp.MustCompile(`(?i)tasks:\s*(.+)`)

	segmentSplit    = regexp.MustCompile(`[,.]`)
	industryPattern = regexp.MustCompile(`(?i)(\w+)\s+industry`)
	rolePattern     = regexp.MustCompile(`(?i)I['’]m an? ([^,.]+)`)
)

type extraction func(answer string, a *domain.Answers)

var businessExtractions = []extraction{
	extractLabeled,
	extractSegments,
	extractPatterns,
	extractFreeText,
}

func parseBusiness(t *Turn) error {
	for _, extract := range businessExtractions {
		extract(t.Answer, &t.Session.Answers)
	}
	return nil
}

func fill(dst *string, v string) {
	v = strings.TrimSpace(v)
	if *dst == "" && v != "" {
		*dst = v
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

func extractLabeled(answer string, a *domain.Answers) {
	fill(&a.BusinessName, firstGroup(labelBusiness, answer))
	fill(&a.Location, firstGroup(labelLocation, answer))
	fill(&a.Industry, firstGroup(labelIndustry, answer))
	fill(&a.Profession, firstGroup(labelRole, answer))
	fill(&a.DailyTasks, firstGroup(labelTasks, answer))
}

func extractSegments(answer string, a *domain.Answers) {
	parts := segmentSplit.Split(answer, -1)
	if len(parts) > 0 {
		fill(&a.BusinessName, parts[0])
	}
	if len(parts) > 1 {
		fill(&a.Location, parts[1])
	}
}

func extractPatterns(answer string, a *domain.Answers) {
	fill(&a.Industry, firstGroup(industryPattern, answer))
	fill(&a.Profession, firstGroup(rolePattern, answer))
}

func extractFreeText(answer string, a *domain.Answers) {
	fill(&a.DailyTasks, answer)
}

// parseRegistration handles the stage 3 terms guard and email capture.
func parseRegistration(t *Turn) error {
	a := &t.Session.Answers
	life := &t.Session.Lifecycle
	switch {
	case strings.EqualFold(t.Answer, OptionNo):
		t.Declined = true
		return nil
	case strings.EqualFold(t.Answer, OptionYes):
		if !life.TosAccepted {
			return &domain.GuardRejection{Stage: 3, Guard: "terms", Message: MsgAcceptTerms}
		}
		t.Answer = OptionYes
		return nil
	case validator.IsEmail(t.Answer):
		if !life.TosAccepted {
			return &domain.GuardRejection{Stage: 3, Guard: "terms", Message: MsgAcceptTerms}
		}
		a.Email = t.Answer
		t.Registered = true
		return nil
	}
	return reject(t, validator.MsgInvalidEmail)
}

func parsePurchase(t *Turn) error {
	opt, _ := validator.Canonical(t.Answer, PurchaseOptions)
	t.Answer = opt
	if opt == OptionFAQ {
		return nil
	}
	t.Session.Answers.Purchase = opt
	return nil
}

var employeesPattern = regexp.MustCompile(`(?i)(\d+)\s*employees?`)

// parseChallenge splits "Category: elaboration" and extracts signals from the elaboration.
func parseChallenge(t *Turn) error {
	cat, details, _ := strings.Cut(t.Answer, ":")
	category, ok := validator.Canonical(cat, Categories)
	if !ok {
		return reject(t, validator.MsgInvalidOption)
	}
	details = strings.TrimSpace(details)
	if msg, ok := validator.MinLength(validator.MinDetailLength, validator.MsgDetailShort)(details); !ok {
		return reject(t, msg)
	}

	a := &t.Session.Answers
	a.Challenge = category
	a.ChallengeDetails = details
	if size := firstGroup(employeesPattern, details); size != "" {
		a.BusinessSize = size
	}
	sig := signals.Extract(details)
	a.Q5Keywords = sig.Keywords
	a.Q5EmotiveWord = sig.EmotiveWord

	t.Answer = category
	t.Keywords = sig.Keywords
	return nil
}

var issueSplit = regexp.MustCompile(`(?i)\band\b|,`)

func parseIssues(t *Turn) error {
	parts := issueSplit.Split(t.Answer, -1)
	a := &t.Session.Answers
	a.PrimaryIssue = strings.TrimSpace(parts[0])
	var rest []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			rest = append(rest, p)
		}
	}
	a.SecondaryIssue = strings.Join(rest, " ")
	return nil
}

func parseOutcomes(t *Turn) error {
	var parts []string
	for _, p := range segmentSplit.Split(t.Answer, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	a := &t.Session.Answers
	a.DreamOutcome = t.Answer
	if len(parts) > 0 {
		a.DreamOutcome = parts[0]
	}
	if len(parts) > 1 {
		a.SuccessMetric = parts[1]
	}
	if len(parts) > 2 {
		a.SettleOutcome = parts[2]
	}
	return nil
}

func parseUpsell(t *Turn) error {
	opt, _ := validator.Canonical(t.Answer, UpsellOptions)
	t.Answer = opt
	if opt != OptionNoThanks {
		t.Session.Answers.FinalPurchase = opt
	}
	return nil
}

// parseUpgrade accepts "Upgrade to <tier>" or keeps the current purchase.
func parseUpgrade(t *Turn) error {
	a := &t.Session.Answers
	if tier, ok := cutPrefixFold(t.Answer, scoring.UpgradePrefix); ok {
		if canon, known := validator.Canonical(tier, []string{domain.TierStarter, domain.TierGrowth}); known {
			a.FinalPurchase = canon
			t.Answer = scoring.UpgradePrefix + canon
			return nil
		}
	}
	a.FinalPurchase = a.Purchase
	return nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

func parseCompletion(t *Turn) error {
	t.Session.Answers.PurchaseDate = t.Now.Format(dateLayout)
	return nil
}

const dateLayout = "2006-01-02"
