package runtime

import (
	"github.com/aretw0/actbot/internal/validator"
	"github.com/aretw0/actbot/pkg/domain"
)

// StageDefinition is the static configuration of one interview stage.
type StageDefinition struct {
	Number      int              `json:"number"`
	Kind        domain.InputKind `json:"kind"`
	Field       string           `json:"field,omitempty"`
	Label       string           `json:"label"`
	Question    string           `json:"question"`
	Placeholder string           `json:"placeholder,omitempty"`
	Options     []string         `json:"options,omitempty"`
	// FreeText marks choice stages that also accept typed answers.
	FreeText bool `json:"free_text,omitempty"`

	// Validate runs before Parse. Nil means any answer passes.
	Validate validator.Validator `json:"-"`
	// Parse writes the answer into the working session of the turn.
	Parse Parser `json:"-"`
}

// Categories are the challenge categories offered at stage 5.
var Categories = domain.Categories

// Option lists of the choice stages.
var (
	PurchaseOptions      = []string{domain.TierPlay, domain.TierPlaybook, domain.TierStarter, domain.TierGrowth, domain.TierPremium, OptionFAQ}
	BusinessStageOptions = domain.BusinessStages
	BudgetOptions        = []string{"Limited Budget", "$1,000-$2,500", "Over $2,500", "Flexible"}
	UrgencyOptions       = []string{"Immediate (30 days)", "Short-Term (60 days)", "Longer-Term (90+ days)"}
	UpsellOptions        = []string{domain.TierPremium, domain.TierGrowth, OptionNoThanks}
	SupportOptions       = domain.SupportPlans
)

const (
	OptionFAQ      = "FAQ"
	OptionNoThanks = "No Thanks"
	OptionYes      = "yes"
	OptionNo       = "no"
	OptionConfirm  = "Confirm Purchase"
)

// Stages is the immutable stage table, indexed by stage number (index 0 is unused).
var Stages = [domain.LastStage + 1]StageDefinition{
	1: {
		Kind:        domain.InputFreeText,
		Field:       "first_name",
		Label:       "Let's kick things off!",
		Question:    "What's your name?",
		Placeholder: "E.g., John Doe",
		Parse:       parseName,
	},
	2: {
		Kind:        domain.InputFreeText,
		Field:       "business_name",
		Label:       "Getting to know you...",
		Question:    "Tell me about your business: its name, location, industry, your role and daily tasks.",
		Placeholder: "E.g., Acme Plumbing, Boise, ID. Trades industry. I'm a plumber, fixing pipes and chasing leads daily.",
		Validate:    validator.MinLength(validator.MinDetailLength, validator.MsgBusinessShort),
		Parse:       parseBusiness,
	},
	3: {
		Kind:        domain.InputHybrid,
		Field:       "email",
		Label:       "Let's make it official...",
		Question:    "Register now to unlock your personalized plan. Accept our Terms of Service and NDA, then enter your business email.",
		Placeholder: "E.g., info@keffordconsulting.com",
		Options:     []string{OptionYes, OptionNo},
		Parse:       parseRegistration,
	},
	4: {
		Kind:     domain.InputChoice,
		Field:    "purchase",
		Label:    "Choose your path...",
		Question: "Which plan fits your goals?",
		Options:  PurchaseOptions,
		Validate: validator.OneOf(PurchaseOptions...),
		Parse:    parsePurchase,
	},
	5: {
		Kind:        domain.InputHybrid,
		Field:       "challenge",
		Label:       "What's your hurdle?",
		Question:    "What's your biggest challenge right now? Pick a category and tell us more.",
		Placeholder: "E.g., I need a new business idea to boost revenue, I can't grow without one, 5 employees.",
		Options:     Categories,
		Parse:       parseChallenge,
	},
	6: {
		Kind:     domain.InputChoice,
		Field:    "business_stage",
		Label:    "Sizing up...",
		Question: "Where is your business today?",
		Options:  BusinessStageOptions,
		Validate: validator.OneOf(BusinessStageOptions...),
		Parse:    assign(func(a *domain.Answers, v string) { a.BusinessStage = v }),
	},
	7: {
		Kind:        domain.InputFreeText,
		Field:       "primary_issue",
		Label:       "Unpacking your challenge...",
		Question:    "What's the main issue behind it, and anything else holding you back?",
		Placeholder: "E.g., Losing clients due to slow sales, and my team's burned out.",
		Parse:       parseIssues,
	},
	8: {
		Kind:        domain.InputFreeText,
		Field:       "limits",
		Label:       "What's in your toolbox...",
		Question:    "What are your constraints?",
		Placeholder: "E.g., Tight budget and no online presence.",
		Parse:       assign(func(a *domain.Answers, v string) { a.Limits = v }),
	},
	9: {
		Kind:        domain.InputFreeText,
		Field:       "dream_outcome",
		Label:       "Dream big...",
		Question:    "What's your dream outcome, how will you measure it, and what would you settle for?",
		Placeholder: "E.g., Double revenue to $50K/month, track revenue growth. Settle for adding $10K.",
		Parse:       parseOutcomes,
	},
	10: {
		Kind:        domain.InputFreeText,
		Field:       "strengths",
		Label:       "Fueling your dream...",
		Question:    "What are your strengths?",
		Placeholder: "E.g., Top-notch service and loyal clients set us apart.",
		Parse:       assign(func(a *domain.Answers, v string) { a.Strengths = v }),
	},
	11: {
		Kind:        domain.InputFreeText,
		Field:       "challenge_start",
		Label:       "Tracing the roots...",
		Question:    "When did this challenge start?",
		Placeholder: "E.g., Six months ago, a key client left.",
		Parse:       assign(func(a *domain.Answers, v string) { a.ChallengeStart = v }),
	},
	12: {
		Kind:        domain.InputFreeText,
		Field:       "root_cause",
		Label:       "Finding the cause...",
		Question:    "What do you think is the root cause?",
		Placeholder: "E.g., Lack of training, plus weak online presence.",
		Parse:       assign(func(a *domain.Answers, v string) { a.RootCause = v }),
	},
	13: {
		Kind:        domain.InputChoice,
		Field:       "budget",
		Label:       "Planning your investment...",
		Question:    "What budget do you have in mind?",
		Placeholder: "Or E.g., $1,000 one-time.",
		Options:     BudgetOptions,
		FreeText:    true,
		Parse:       assignOption(BudgetOptions, func(a *domain.Answers, v string) { a.Budget = v }),
	},
	14: {
		Kind:        domain.InputChoice,
		Field:       "urgency",
		Label:       "Timing is everything...",
		Question:    "How urgent is this for you?",
		Placeholder: "Or E.g., Losing clients in 30 days.",
		Options:     UrgencyOptions,
		FreeText:    true,
		Parse:       assignOption(UrgencyOptions, func(a *domain.Answers, v string) { a.Urgency = v }),
	},
	15: {
		Kind:     domain.InputChoice,
		Field:    "final_purchase",
		Label:    "Your solution awaits..",
		Question: "Want faster results? Upgrade your plan.",
		Options:  UpsellOptions,
		Validate: validator.OneOf(UpsellOptions...),
		Parse:    parseUpsell,
	},
	16: {
		Kind:     domain.InputChoice,
		Field:    "final_purchase",
		Label:    "Boost your plan...",
		Question: "Boost your plan?",
		Parse:    parseUpgrade,
	},
	17: {
		Kind:     domain.InputChoice,
		Field:    "support_calls",
		Label:    "Secure your success...",
		Question: "Add support calls to protect your investment?",
		Options:  SupportOptions,
		Validate: validator.OneOf(SupportOptions...),
		Parse:    assignOption(SupportOptions, func(a *domain.Answers, v string) { a.SupportCalls = v }),
	},
	18: {
		Kind:     domain.InputTerminal,
		Field:    "purchase_date",
		Label:    "You're all set!",
		Question: "Confirm your purchase to start growing.",
		Options:  []string{OptionConfirm},
		Parse:    parseCompletion,
	},
}

func init() {
	for n := range Stages {
		Stages[n].Number = n
	}
}

// Stage returns the definition of stage n. It panics on an out-of-range n,
// which the state machine never produces.
func Stage(n int) StageDefinition {
	return Stages[n]
}

// progressAfter is the display progress once a stage has been answered.
var progressAfter = map[int]int{
	1: 5, 2: 10, 3: 15, 4: 20, 5: 25, 6: 30, 7: 35, 8: 40, 9: 45,
	10: 50, 11: 55, 12: 60, 13: 65, 14: 70, 15: 75, 16: 80, 17: 85, 18: 100,
}

const (
	progressStart  = 5
	progressBypass = 90
	progressResume = 20
)

// progressFor returns the progress after answering stage and moving to next.
func progressFor(stage, next int) int {
	switch {
	case stage == 1 && next == domain.LastStage:
		return progressBypass
	case stage == 4 && next == 15:
		return progressAfter[15]
	case stage == 15 && next == domain.LastStage:
		return progressBypass
	}
	return progressAfter[stage]
}
