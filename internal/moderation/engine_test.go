package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModerate(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		text     string
		decision Decision
		reason   string
	}{
		{
			name:     "clean text approved",
			text:     "I secretly water my neighbor's plants when they forget.",
			decision: DecisionApproved,
		},
		{
			name:     "phone number blocked",
			text:     "Call me at 5551234567 if you feel the same",
			decision: DecisionBlocked,
			reason:   "contains_pii",
		},
		{
			name:     "national id blocked",
			text:     "my id is 123456789012 and I regret sharing it",
			decision: DecisionBlocked,
			reason:   "contains_pii",
		},
		{
			name:     "threat pattern blocked",
			text:     "there will be an attack tomorrow",
			decision: DecisionBlocked,
			reason:   "threatening_content",
		},
		{
			name:     "banned word blocked",
			text:     "I hate my job so much",
			decision: DecisionBlocked,
			reason:   "hate_speech",
		},
		{
			name:     "banned word case insensitive",
			text:     "Sometimes I think about SUICIDE",
			decision: DecisionBlocked,
		},
		{
			name:     "over length needs review",
			text:     strings.Repeat("a harmless story ", 300),
			decision: DecisionNeedsReview,
			reason:   "over_length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Moderate(tt.text)
			assert.Equal(t, tt.decision, result.Decision)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, result.Reason)
			}
		})
	}
}

func TestModerateBlockingBeatsReview(t *testing.T) {
	engine := NewEngine()

	// PII inside an over-length text must block, not queue for review.
	text := strings.Repeat("x ", 3000) + " 5551234567 "
	result := engine.Moderate(text)
	assert.Equal(t, DecisionBlocked, result.Decision)
	assert.Equal(t, "contains_pii", result.Reason)
}

func TestModerateDigitRunBoundaries(t *testing.T) {
	engine := NewEngine()

	// Eleven digits match neither the 10 nor 12 digit pattern.
	result := engine.Moderate("number 12345678901 is fine")
	assert.Equal(t, DecisionApproved, result.Decision)
}
