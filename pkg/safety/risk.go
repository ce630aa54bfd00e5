// Package safety implements crisis keyword detection and risk classification
// for user messages. Classification is deterministic and side-effect free;
// persistence and alerting live in pkg/crisis.
package safety

import "fmt"

// RiskLevel is the ordered severity of a user message.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskNames = map[RiskLevel]string{
	RiskNone:     "NONE",
	RiskLow:      "LOW",
	RiskMedium:   "MEDIUM",
	RiskHigh:     "HIGH",
	RiskCritical: "CRITICAL",
}

func (l RiskLevel) String() string {
	if name, ok := riskNames[l]; ok {
		return name
	}
	return "NONE"
}

// Crisis reports whether the level warrants crisis handling (HIGH or above).
func (l RiskLevel) Crisis() bool {
	return l >= RiskHigh
}

// ParseRiskLevel converts a level name back to a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for level, name := range riskNames {
		if name == s {
			return level, nil
		}
	}
	return RiskNone, fmt.Errorf("safety: unknown risk level %q", s)
}

// SafetyPrompt returns the system-prompt adjustment the chat layer appends
// for a given risk level. Empty for NONE.
func SafetyPrompt(level RiskLevel) string {
	switch level {
	case RiskCritical, RiskHigh:
		return "The user may be in crisis. Respond with warmth and empathy, " +
			"take what they say seriously, and gently encourage them to contact " +
			"a crisis helpline or emergency services. Never provide information " +
			"that could facilitate self-harm, and never minimize their distress."
	case RiskMedium:
		return "The user is showing signs of significant distress. Acknowledge " +
			"their feelings, suggest healthy coping strategies, and encourage " +
			"speaking with a mental health professional."
	case RiskLow:
		return "The user seems stressed or low. Keep a supportive, validating " +
			"tone and check in on how they are coping."
	default:
		return ""
	}
}
