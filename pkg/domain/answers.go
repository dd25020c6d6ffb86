package domain

import "slices"

// Answers is the fixed superset of fields collected during the interview.
// The json/mapstructure keys form the flat handoff snapshot format.
type Answers struct {
	FirstName        string   `json:"first_name,omitempty" mapstructure:"first_name"`
	LastName         string   `json:"last_name,omitempty" mapstructure:"last_name"`
	BusinessName     string   `json:"business_name,omitempty" mapstructure:"business_name"`
	Location         string   `json:"location,omitempty" mapstructure:"location"`
	Industry         string   `json:"industry,omitempty" mapstructure:"industry"`
	Profession       string   `json:"profession,omitempty" mapstructure:"profession"`
	DailyTasks       string   `json:"daily_tasks,omitempty" mapstructure:"daily_tasks"`
	Email            string   `json:"email,omitempty" mapstructure:"email"`
	Purchase         string   `json:"purchase,omitempty" mapstructure:"purchase"`
	Challenge        string   `json:"challenge,omitempty" mapstructure:"challenge"`
	ChallengeDetails string   `json:"challenge_details,omitempty" mapstructure:"challenge_details"`
	BusinessSize     string   `json:"business_size,omitempty" mapstructure:"business_size"`
	BusinessStage    string   `json:"business_stage,omitempty" mapstructure:"business_stage"`
	PrimaryIssue     string   `json:"primary_issue,omitempty" mapstructure:"primary_issue"`
	SecondaryIssue   string   `json:"secondary_issue,omitempty" mapstructure:"secondary_issue"`
	Limits           string   `json:"limits,omitempty" mapstructure:"limits"`
	DreamOutcome     string   `json:"dream_outcome,omitempty" mapstructure:"dream_outcome"`
	SuccessMetric    string   `json:"success_metric,omitempty" mapstructure:"success_metric"`
	SettleOutcome    string   `json:"settle_outcome,omitempty" mapstructure:"settle_outcome"`
	Strengths        string   `json:"strengths,omitempty" mapstructure:"strengths"`
	ChallengeStart   string   `json:"challenge_start,omitempty" mapstructure:"challenge_start"`
	RootCause        string   `json:"root_cause,omitempty" mapstructure:"root_cause"`
	Budget           string   `json:"budget,omitempty" mapstructure:"budget"`
	Urgency          string   `json:"urgency,omitempty" mapstructure:"urgency"`
	FinalPurchase    string   `json:"final_purchase,omitempty" mapstructure:"final_purchase"`
	SupportCalls     string   `json:"support_calls,omitempty" mapstructure:"support_calls"`
	Q5Keywords       []string `json:"q5_keywords,omitempty" mapstructure:"q5_keywords"`
	Q5EmotiveWord    string   `json:"q5_emotive_word,omitempty" mapstructure:"q5_emotive_word"`
	ReferrerName     string   `json:"referrer_name,omitempty" mapstructure:"referrer_name"`
	PurchaseDate     string   `json:"purchase_date,omitempty" mapstructure:"purchase_date"`
}

// Fields flattens the answers into a map keyed by snapshot field name.
// Unset fields are omitted.
func (a Answers) Fields() map[string]any {
	m := make(map[string]any)
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("first_name", a.FirstName)
	set("last_name", a.LastName)
	set("business_name", a.BusinessName)
	set("location", a.Location)
	set("industry", a.Industry)
	set("profession", a.Profession)
	set("daily_tasks", a.DailyTasks)
	set("email", a.Email)
	set("purchase", a.Purchase)
	set("challenge", a.Challenge)
	set("challenge_details", a.ChallengeDetails)
	set("business_size", a.BusinessSize)
	set("business_stage", a.BusinessStage)
	set("primary_issue", a.PrimaryIssue)
	set("secondary_issue", a.SecondaryIssue)
	set("limits", a.Limits)
	set("dream_outcome", a.DreamOutcome)
	set("success_metric", a.SuccessMetric)
	set("settle_outcome", a.SettleOutcome)
	set("strengths", a.Strengths)
	set("challenge_start", a.ChallengeStart)
	set("root_cause", a.RootCause)
	set("budget", a.Budget)
	set("urgency", a.Urgency)
	set("final_purchase", a.FinalPurchase)
	set("support_calls", a.SupportCalls)
	if len(a.Q5Keywords) > 0 {
		m["q5_keywords"] = slices.Clone(a.Q5Keywords)
	}
	set("q5_emotive_word", a.Q5EmotiveWord)
	set("referrer_name", a.ReferrerName)
	set("purchase_date", a.PurchaseDate)
	return m
}

// DisplayName returns the first name or a neutral fallback.
func (a Answers) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	return "friend"
}

// Tier returns the tier the session will be charged for.
func (a Answers) Tier() string {
	if a.FinalPurchase != "" {
		return a.FinalPurchase
	}
	return a.Purchase
}
