package domain

// Stage bounds of the interview.
const (
	FirstStage = 1
	LastStage  = 18

	// ResumeStage is the lowest stage a handoff snapshot may resume at.
	ResumeStage = 4

	// BackMinStage and BackMaxStage delimit the back-navigable range.
	BackMinStage = 5
	BackMaxStage = 17
)

// InputKind describes what a stage expects from the user.
type InputKind string

const (
	InputFreeText InputKind = "free_text"
	InputChoice   InputKind = "choice"
	InputHybrid   InputKind = "hybrid"
	InputTerminal InputKind = "terminal"
)

// RequiresText reports whether an empty answer must be rejected for this kind.
func (k InputKind) RequiresText() bool {
	return k == InputFreeText || k == InputHybrid
}

// Tier names.
const (
	TierPlay         = "Play"
	TierPlaybook     = "Playbook"
	TierStarter      = "Starter"
	TierGrowth       = "Growth"
	TierPremium      = "Premium"
	TierTestPlaybook = "Test Playbook"
)

// Tiers lists the tiers selectable at stage 4, in increasing baseline order.
var Tiers = []string{TierPlay, TierStarter, TierPlaybook, TierGrowth, TierPremium}

// IsTier reports whether name is a known purchasable tier.
func IsTier(name string) bool {
	if name == TierTestPlaybook {
		return true
	}
	for _, t := range Tiers {
		if t == name {
			return true
		}
	}
	return false
}

// Challenge categories offered at stage 5.
var Categories = []string{
	"Sales", "Efficiency", "Client Retention", "Lead Generation", "Hiring", "Branding",
	"Digital Growth", "Partnerships", "Cost Reduction", "Innovation", "Other",
}

// Closed vocabularies of the business stage (6) and support calls (17) answers.
var (
	BusinessStages = []string{"Growing Fast", "Stable", "Struggling"}
	SupportPlans   = []string{"1 Month ($300)", "3 Months ($750)", "No"}
)

// BackEnabled reports whether back-navigation is allowed while sitting at stage.
func BackEnabled(stage int) bool {
	return stage > FirstStage && stage < LastStage && stage >= BackMinStage && stage <= BackMaxStage
}

// ValidStage reports whether stage lies within the interview bounds.
func ValidStage(stage int) bool {
	return stage >= FirstStage && stage <= LastStage
}
