package runtime

import (
	"github.com/aretw0/actbot/pkg/domain"
)

// Transition picks the next stage once the answer of the current stage was accepted.
type Transition func(t *Turn) int

// transitions holds the stages that do not simply advance by one.
var transitions = map[int]Transition{
	1: func(t *Turn) int {
		if t.Bypass {
			return domain.LastStage
		}
		return 2
	},
	3: func(t *Turn) int {
		if t.Declined {
			return 3
		}
		return 4
	},
	4: func(t *Turn) int {
		switch t.Answer {
		case OptionFAQ:
			return 4
		case domain.TierGrowth, domain.TierPremium:
			return 15
		}
		return 5
	},
	15: func(t *Turn) int {
		if t.Answer == domain.TierPremium {
			return domain.LastStage
		}
		return 16
	},
	domain.LastStage: func(*Turn) int {
		return domain.LastStage
	},
}

// Next returns the stage following the turn.
func Next(t *Turn) int {
	if tr, ok := transitions[t.Session.Stage]; ok {
		return tr(t)
	}
	return t.Session.Stage + 1
}

// Route is one move between stages. Condition is empty for the default move.
type Route struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	Condition string `json:"condition,omitempty"`
}

// conditional lists the moves of the stages in transitions.
var conditional = map[int][]Route{
	1: {
		{From: 1, To: domain.LastStage, Condition: "bypass token"},
		{From: 1, To: 2},
	},
	3: {
		{From: 3, To: 3, Condition: OptionNo},
		{From: 3, To: 4},
	},
	4: {
		{From: 4, To: 4, Condition: OptionFAQ},
		{From: 4, To: 15, Condition: domain.TierGrowth + " or " + domain.TierPremium},
		{From: 4, To: 5},
	},
	15: {
		{From: 15, To: domain.LastStage, Condition: domain.TierPremium},
		{From: 15, To: 16},
	},
}

// Routes lists every forward move the state machine can make, ordered by stage.
// Back navigation and the completed stage are not included.
func Routes() []Route {
	var routes []Route
	for n := domain.FirstStage; n < domain.LastStage; n++ {
		if rs, ok := conditional[n]; ok {
			routes = append(routes, rs...)
			continue
		}
		routes = append(routes, Route{From: n, To: n + 1})
	}
	return routes
}
