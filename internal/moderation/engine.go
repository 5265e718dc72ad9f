// Package moderation implements the text screening engine that decides
// whether a confession may be shown publicly.
package moderation

import (
	"regexp"
	"strings"
)

// Decision is the moderation outcome for a piece of text.
type Decision string

const (
	DecisionApproved    Decision = "approved"
	DecisionBlocked     Decision = "blocked"
	DecisionNeedsReview Decision = "needs_review"
)

// Result carries a moderation decision and, for non-approvals, the reason.
type Result struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
}

// reviewLengthThreshold sends unusually long submissions to the admin queue
// instead of auto-approving them.
const reviewLengthThreshold = 4000

// bannedWords maps trigger words to the category reported as the block reason.
var bannedWords = map[string]string{
	"hate":    "hate_speech",
	"kill":    "violence",
	"suicide": "self_harm",
}

// piiPatterns match phone-like and national-ID-like digit runs.
var piiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{10}\b`),
	regexp.MustCompile(`\b\d{12}\b`),
}

// threatPatterns match explicit threat phrasings that are blocked outright.
var threatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:kill|murder|suicide|self-harm)\b.*\b(?:yourself|myself|themselves)\b`),
	regexp.MustCompile(`\b(?:bomb|explosion|terrorist|attack)\b`),
	regexp.MustCompile(`\b(?:rape|assault|abuse)\b.*\b(?:threat|plan|going to)\b`),
}

// Engine screens confession text. The zero value is not usable; construct
// with NewEngine.
type Engine struct {
	banned  map[string]string
	pii     []*regexp.Regexp
	threats []*regexp.Regexp
}

// NewEngine returns an Engine with the default rule set.
func NewEngine() *Engine {
	return &Engine{
		banned:  bannedWords,
		pii:     piiPatterns,
		threats: threatPatterns,
	}
}

// Moderate classifies the given text. Blocking rules are checked first so a
// submission that both contains PII and is over-length is blocked, not queued.
func (e *Engine) Moderate(text string) Result {
	t := strings.ToLower(text)

	for _, pat := range e.pii {
		if pat.MatchString(t) {
			return Result{Decision: DecisionBlocked, Reason: "contains_pii"}
		}
	}

	for _, pat := range e.threats {
		if pat.MatchString(t) {
			return Result{Decision: DecisionBlocked, Reason: "threatening_content"}
		}
	}

	for word, reason := range e.banned {
		if strings.Contains(t, word) {
			return Result{Decision: DecisionBlocked, Reason: reason}
		}
	}

	if len(text) > reviewLengthThreshold {
		return Result{Decision: DecisionNeedsReview, Reason: "over_length"}
	}

	return Result{Decision: DecisionApproved}
}
