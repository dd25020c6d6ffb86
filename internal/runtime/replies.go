package runtime

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aretw0/actbot/pkg/domain"
)

// Fixed bot messages.
const (
	MsgGreeting         = "Hi, I'm A.C.T., your Automated Consultant Toolkit. We're here to spark 20-30%+ growth for your business! Let's start with an easy one, what's your name?"
	MsgAcceptTerms      = "Please accept the Terms of Service and NDA first."
	MsgTimeout          = "Your session timed out. Let's start fresh!"
	MsgLockout          = "Too many invalid inputs. Please try again later or contact support@keffordconsulting.com."
	MsgHelp             = "What's on your mind?"
	MsgSaveNeedsEmail   = "Please provide your email (in Question 3) to save your progress."
	MsgSaveFailed       = "Could not send resume link. Please try again."
	MsgFAQ              = "Heading to our FAQ page! Your session is saved (mocked)."
	MsgDeclined         = "No problem. Feel free to browse our site. You can resume this chat anytime. Session saved (mocked)."
	MsgProcessingFailed = "Something went wrong while saving your progress. Your answer was recorded."
)

// Referral program suffix appended to the uppercased first name.
const referralSuffix = "2025"

var printer = message.NewPrinter(language.English)

// Money formats an amount with thousands separators and no decimals.
func Money(v float64) string {
	return "$" + printer.Sprintf("%d", int64(math.Round(v)))
}

// Greeting returns the opening message, personalised when a referrer invited the user.
func Greeting(referrer string) string {
	if referrer != "" {
		return fmt.Sprintf("Hi, I'm A.C.T.! Your friend %s invited you. Let's spark 20-30%%+ growth for your business! What's your name?", referrer)
	}
	return MsgGreeting
}

// WelcomeBack greets a resumed session.
func WelcomeBack(a domain.Answers) string {
	return fmt.Sprintf("Welcome back, %s! Let's continue where we left off. Now, let's choose your path forward.", a.DisplayName())
}

// NudgeText is the inactivity reminder.
func NudgeText(a domain.Answers) string {
	return fmt.Sprintf("Still here, %s? Let's explore your query!", a.DisplayName())
}

// ResumeLinkSent confirms a save-for-later request.
func ResumeLinkSent(email string) string {
	return fmt.Sprintf("A link to resume this session has been emailed to %s. (Mocked)", email)
}

// ReferralCode is the code handed out on completion.
func ReferralCode(a domain.Answers) string {
	return strings.ToUpper(a.FirstName) + referralSuffix
}

// Summary is the completion message of stage 18.
func Summary(s *domain.Session) string {
	a := s.Answers
	tier := a.Tier()
	return fmt.Sprintf(
		"How good was that?! You've got this, %s! Congratulations, your %s delivers %s in savings and %.1f hours saved in research/planning for your business growth. Your %s is ready. Check your email for download links and next steps! Invite friends with your referral code %s.",
		a.DisplayName(), tier, Money(s.Score.Savings), s.Score.Hours, tier, ReferralCode(a),
	)
}

type replyFunc func(t *Turn) []string

func say(format string) replyFunc {
	return func(t *Turn) []string {
		return []string{fmt.Sprintf(format, t.Session.Answers.DisplayName())}
	}
}

var replies = map[int]replyFunc{
	1: say("Great to meet you, %s! I'm excited to help you succeed."),
	2: say("Thanks, %s! What a vibrant business. I'm excited to learn more about your needs."),
	3: func(t *Turn) []string {
		name := t.Session.Answers.DisplayName()
		switch {
		case t.Declined:
			return []string{MsgDeclined}
		case t.Registered:
			return []string{fmt.Sprintf("Awesome, %s! Preparing your account in our Members Only Area. You'll be redirected shortly.", name)}
		}
		return []string{fmt.Sprintf("Thanks, %s! Terms accepted. You can register your business email anytime.", name)}
	},
	4: func(t *Turn) []string {
		if t.Answer == OptionFAQ {
			return []string{MsgFAQ}
		}
		return []string{fmt.Sprintf("Brilliant choice, %s! Let's take care of your needs...", t.Session.Answers.DisplayName())}
	},
	5: func(t *Turn) []string {
		a := t.Session.Answers
		return []string{fmt.Sprintf("%s? We've got oodles of solutions surrounding that one, %s. Let's dive deeper...", a.Challenge, a.DisplayName())}
	},
	6:  say("Got it, %s. We're shaping your plan..."),
	7:  say("That's tough, %s. Thanks for sharing the details. We're going to help..."),
	8:  say("I hear you, %s. We'll keep this in mind and work with what we've got..."),
	9:  say("Inspiring, %s! We're thrilled to make it happen..."),
	10: say("That's a solid foundation, %s! Let's build on it..."),
	11: say("Thanks for that. Sorry to hear, %s. On the bright side, we've now got a clearer understanding of the problems, and are over halfway to your solutions..."),
	12: say("Tough but not insurmountable. You're doing a great job helping me focus on the details, %s. Let's keep going..."),
	13: say("Perfect, %s. We're almost there..."),
	14: say("That's it! The hard part's done, %s. Let's get to your solution..."),
	15: say("Here's how we'll win, %s..."),
	16: say("Smart move, %s! Last question..."),
	17: say("You're set for success, %s!"),
	18: func(t *Turn) []string {
		return []string{
			fmt.Sprintf("Redirecting to payment for %s... (Mocked)", t.Session.Answers.Tier()),
			Summary(t.Session),
		}
	},
}

// Hint returns the contextual tip for the stage the session is at.
func Hint(s *domain.Session) string {
	a := s.Answers
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	savings := "significant savings"
	if s.Score.Savings > 0 {
		savings = Money(s.Score.Savings)
	}

	switch s.Stage {
	case 1:
		return "Share your full name to start your journey, e.g. 'John Doe.' This helps us personalize your experience!"
	case 2:
		return "Include your business name, city, industry, and a key daily task, e.g. 'Acme Plumbing, Boise, Trades. I'm a plumber, focusing on pipe repairs and client follow-ups.'"
	case 3:
		return "Use your business email to unlock exclusive tools, e.g. 'info@acmeplumbing.com.' This ensures secure access to your personalized plan!"
	case 4:
		return fmt.Sprintf("Choose a plan that fits your goals: Play for quick wins, Premium for full support with 3 months of calls. Most %s pick Growth for lasting results!", or(a.Profession, "professionals"))
	case 5:
		return "Pick a challenge and explain its urgency, e.g. 'Sales: We're losing $5K/month due to low leads, and I have 3 employees counting on growth.'"
	case 6:
		return "Consider your business's current state, e.g. 'Growing Fast: We're gaining clients but can't keep up with demand.'"
	case 7:
		return "Focus on the biggest hurdle and a secondary concern, e.g. 'Slow sales: We're losing $2K/month, and my team's burnout is reducing productivity.'"
	case 8:
		return "Highlight a key constraint, e.g. 'Our team is highly skilled, but we operate with a lean budget.'"
	case 9:
		return "Define your ideal goal, key metric, and minimum target, e.g. 'Double revenue to $50K/month, track revenue growth, settle for adding $10K.'"
	case 10:
		return fmt.Sprintf("Highlight strengths that address your challenge, e.g. 'We have a loyal client base with 90%% retention, and our %s expertise ensures quick solutions.'", or(a.Industry, "industry"))
	case 11:
		return "Think about a specific event that triggered this challenge, e.g. 'Six months ago, a key client left due to pricing issues.'"
	case 12:
		return "Identify the main cause and a secondary factor, e.g. 'Lack of training: Staff can't handle new clients, plus our weak online presence limits visibility.'"
	case 13:
		return "Specify your budget to ensure tailored recommendations, e.g. '$1,000 one-time' or 'Flexible: I'm open to investing for the right solution.'"
	case 14:
		return "Specify the urgency to prioritize your plan, e.g. 'Immediate: Losing clients in 30 days, costing $3K/month.'"
	case 15:
		return fmt.Sprintf("Upgrade for faster results: Premium offers a Consult plus 3 months of support to achieve %s. 80%% of %s see 30%%+ growth with Growth or Premium!", or(a.DreamOutcome, "your goals"), or(a.Profession, "professionals"))
	case 16:
		return fmt.Sprintf("Upgrade to accelerate your challenge solution: Growth offers 3 months of support to drive %s. 80%% of users upgrade for faster results!", savings)
	case 17:
		return "88% of customers add Support Calls to protect their investment and ensure successful results."
	case 18:
		amount := "significant"
		if s.Score.Savings > 0 {
			amount = Money(s.Score.Savings)
		}
		return fmt.Sprintf("Confirm your purchase to start growing. Your %s is ready to deliver %s in savings!", or(a.Tier(), "plan"), amount)
	}
	return ""
}
