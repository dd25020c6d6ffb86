// Package scoring holds the per-stage scoring table of the interview.
//
// Every rule is a pure function of the answer, the keywords extracted for the
// stage and the prior score. Rules return a non-negative delta that the state
// machine adds to the running totals.
package scoring

import (
	"math"
	"strings"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/signals"
)

// Input is what a scoring rule sees.
type Input struct {
	// Answer is the canonical answer for the stage (the category at stage 5).
	Answer string
	// Keywords are the signals extracted for this stage.
	Keywords []string
	Prior    domain.Score
}

// Rule computes the score delta of one stage.
type Rule func(Input) domain.Score

// Baselines seeds the score when a tier is chosen at stage 4.
var Baselines = map[string]domain.Score{
	domain.TierPlay:     {Savings: 500, Hours: 2},
	domain.TierPlaybook: {Savings: 1500, Hours: 5},
	domain.TierStarter:  {Savings: 750, Hours: 3},
	domain.TierGrowth:   {Savings: 2000, Hours: 8},
	domain.TierPremium:  {Savings: 4000, Hours: 12},
}

// Triggers maps stages 7 to 13 to the single keyword that earns their bonus.
var Triggers = map[int]Trigger{
	7:  {Word: "clients", Bonus: domain.Score{Savings: 200, Hours: 0.5}},
	8:  {Word: "budget", Bonus: domain.Score{Savings: 100, Hours: 0.3}},
	9:  {Word: "sales", Bonus: domain.Score{Savings: 300, Hours: 0.5}},
	10: {Word: "service", Bonus: domain.Score{Savings: 200, Hours: 0.5}},
	11: {Word: "client", Bonus: domain.Score{Savings: 200, Hours: 0.5}},
	12: {Word: "training", Bonus: domain.Score{Savings: 200, Hours: 0.5}},
	13: {Word: "flexible", Bonus: domain.Score{Savings: 300, Hours: 0.5}},
}

// Trigger is a keyword bonus.
type Trigger struct {
	Word  string
	Bonus domain.Score
}

var categoryHours = map[string]float64{
	"Sales":            5,
	"Hiring":           5,
	"Branding":         4,
	"Digital Growth":   4,
	"Partnerships":     3,
	"Cost Reduction":   3,
	"Innovation":       2,
	"Other":            2,
	"Efficiency":       2,
	"Client Retention": 2,
	"Lead Generation":  2,
}

// TopCategory earns the flat savings bonus at stage 5.
const TopCategory = "Sales"

const topCategoryBonus = 3000

var businessStage = map[string]domain.Score{
	"Growing Fast": {Savings: 2000, Hours: 2},
	"Stable":       {Savings: 1500, Hours: 1.5},
	"Struggling":   {Savings: 1000, Hours: 1},
}

var urgency = map[string]domain.Score{
	"Immediate (30 days)":    {Savings: 300, Hours: 1},
	"Short-Term (60 days)":   {Savings: 200, Hours: 0.5},
	"Longer-Term (90+ days)": {Savings: 100, Hours: 0.3},
}

var upsell = map[string]domain.Score{
	domain.TierPremium: {Savings: 3000, Hours: 3},
	domain.TierGrowth:  {Savings: 2000, Hours: 2},
}

var upgrades = map[string]domain.Score{
	domain.TierStarter: {Savings: 1000, Hours: 1},
	domain.TierGrowth:  {Savings: 2000, Hours: 2},
}

// UpgradePrefix introduces a stage 16 upgrade answer.
const UpgradePrefix = "Upgrade to "

var supportBonus = domain.Score{Savings: 600, Hours: 1}

// PaidSupport lists the stage 17 answers that earn the support bonus.
var PaidSupport = []string{"1 Month ($300)", "3 Months ($750)"}

// Rules is the scoring table keyed by stage number. Stages without an entry score nothing.
var Rules = map[int]Rule{
	4:  tierBaseline,
	5:  challengeCategory,
	6:  lookup(businessStage),
	7:  keywordBonus(7),
	8:  keywordBonus(8),
	9:  keywordBonus(9),
	10: keywordBonus(10),
	11: keywordBonus(11),
	12: keywordBonus(12),
	13: keywordBonus(13),
	14: lookup(urgency),
	15: lookup(upsell),
	16: upgrade,
	17: support,
}

// Delta returns the score delta for an answer at stage.
func Delta(stage int, in Input) domain.Score {
	rule, ok := Rules[stage]
	if !ok {
		return domain.Score{}
	}
	return rule(in)
}

// Keywords returns the trigger keywords present in answer for stage.
func Keywords(stage int, answer string) []string {
	t, ok := Triggers[stage]
	if !ok {
		return nil
	}
	return signals.Match(answer, []string{t.Word}, 1)
}

// tierBaseline seeds the per-tier baseline. Re-selecting a tier never lowers the totals.
func tierBaseline(in Input) domain.Score {
	base, ok := Baselines[in.Answer]
	if !ok {
		return domain.Score{}
	}
	return domain.Score{
		Savings: math.Max(base.Savings-in.Prior.Savings, 0),
		Hours:   math.Max(base.Hours-in.Prior.Hours, 0),
	}
}

func challengeCategory(in Input) domain.Score {
	d := domain.Score{Hours: categoryHours[in.Answer]}
	if in.Answer == TopCategory {
		d.Savings += topCategoryBonus
	}
	return d
}

func keywordBonus(stage int) Rule {
	t := Triggers[stage]
	return func(in Input) domain.Score {
		for _, k := range in.Keywords {
			if k == t.Word {
				return t.Bonus
			}
		}
		return domain.Score{}
	}
}

func lookup(table map[string]domain.Score) Rule {
	return func(in Input) domain.Score {
		return table[in.Answer]
	}
}

func upgrade(in Input) domain.Score {
	tier, ok := strings.CutPrefix(in.Answer, UpgradePrefix)
	if !ok {
		return domain.Score{}
	}
	return upgrades[tier]
}

func support(in Input) domain.Score {
	for _, opt := range PaidSupport {
		if in.Answer == opt {
			return supportBonus
		}
	}
	return domain.Score{}
}

// Cue selects the feedback sound for a transition from prev to next.
// A savings change wins over an hours change.
func Cue(prev, next domain.Score) domain.Sound {
	switch {
	case prev.Savings != next.Savings:
		return domain.SoundChaChing
	case prev.Hours != next.Hours:
		return domain.SoundStopwatch
	}
	return domain.SoundNone
}
