package safety

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mindhaven/bastion/pkg/patterns"
)

// negationRe covers short negations preceding a risk phrase ("I would never
// hurt myself", "I don't want to die"). Checked against a small window of
// text before each match so distant negations don't mask real statements.
var negationRe = regexp.MustCompile(`(?i)\b(don'?t|do\s+not|never|not|no|won'?t|wouldn'?t|couldn'?t|didn'?t|wasn'?t|isn'?t|stop(ped)?\s+(feeling|being))\b`)

// negationWindow is how many characters before a match are scanned for a
// negation cue.
const negationWindow = 20

// historyWindow is how many trailing history messages feed escalation.
const historyWindow = 5

// defaultCriticalThreshold is the scorer confidence above which a single
// crisis keyword escalates straight to CRITICAL.
const defaultCriticalThreshold = 0.85

// Classifier assigns a RiskLevel to a user message. It is deterministic for
// a given input and performs no persistence; the scorer is consulted only to
// confirm borderline crisis messages and its failures degrade silently to
// keyword-only classification.
type Classifier struct {
	registry          *patterns.Registry
	detector          *Detector
	scorer            RiskScorer
	log               *slog.Logger
	criticalThreshold float64
}

// NewClassifier builds a classifier. scorer may be nil for keyword-only
// classification; log may be nil.
func NewClassifier(detector *Detector, scorer RiskScorer, log *slog.Logger) *Classifier {
	if detector == nil {
		detector = NewDetector()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		registry:          patterns.Get(),
		detector:          detector,
		scorer:            scorer,
		log:               log,
		criticalThreshold: defaultCriticalThreshold,
	}
}

// SetCriticalThreshold overrides the scorer escalation threshold.
func (c *Classifier) SetCriticalThreshold(t float64) {
	c.criticalThreshold = t
}

// Classify returns the risk level of text given the preceding user messages.
// Empty input is NONE. history is ordered oldest first and only the last
// five entries are considered.
func (c *Classifier) Classify(ctx context.Context, text string, history []string) RiskLevel {
	if strings.TrimSpace(text) == "" {
		return RiskNone
	}

	// Two distinct crisis signals in a single message is treated as
	// critical regardless of tier vocabulary.
	crisisLabels := c.crisisLabels(text)
	if len(crisisLabels) >= 2 {
		return RiskCritical
	}

	level := c.messageLevel(text)

	// A single crisis signal plus a confident model score also escalates.
	if len(crisisLabels) == 1 && level < RiskCritical && c.scorer != nil {
		score, ok, err := c.scorer.Score(ctx, text)
		switch {
		case err != nil:
			c.log.Debug("risk scorer unavailable, keyword-only classification", "error", err)
		case ok && score >= c.criticalThreshold:
			return RiskCritical
		}
	}

	// Any non-negated crisis signal floors the level at HIGH so escalation
	// and classification stay consistent.
	if len(crisisLabels) == 1 && level < RiskHigh {
		level = RiskHigh
	}

	if h := c.historyLevel(history); h > level {
		level = h
	}
	return level
}

// messageLevel checks the tier vocabularies highest-first and returns the
// first non-negated match.
func (c *Classifier) messageLevel(text string) RiskLevel {
	tiers := []struct {
		cat   patterns.Category
		level RiskLevel
	}{
		{patterns.CategoryRiskCritical, RiskCritical},
		{patterns.CategoryRiskHigh, RiskHigh},
		{patterns.CategoryRiskMedium, RiskMedium},
		{patterns.CategoryRiskLow, RiskLow},
	}

	for _, tier := range tiers {
		for _, p := range c.registry.GetByCategory(tier.cat) {
			for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
				if !negated(text, loc[0]) {
					return tier.level
				}
			}
		}
	}
	return RiskNone
}

// crisisLabels returns the distinct non-negated crisis labels in text.
func (c *Classifier) crisisLabels(text string) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, p := range c.registry.GetByCategory(patterns.CategoryCrisis) {
		if seen[p.Name] {
			continue
		}
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			if !negated(text, loc[0]) {
				seen[p.Name] = true
				labels = append(labels, p.Name)
				break
			}
		}
	}
	return labels
}

// historyLevel escalates sustained distress across recent messages:
// two or more medium-plus messages lift the floor to HIGH, one medium-plus
// with repeated low signals lifts to MEDIUM, and persistent low signals
// lift to LOW.
func (c *Classifier) historyLevel(history []string) RiskLevel {
	if len(history) == 0 {
		return RiskNone
	}
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	var mediumPlus, low int
	for _, msg := range recent {
		switch l := c.messageLevel(msg); {
		case l >= RiskMedium:
			mediumPlus++
		case l == RiskLow:
			low++
		}
	}

	switch {
	case mediumPlus >= 2:
		return RiskHigh
	case mediumPlus == 1 && low >= 2:
		return RiskMedium
	case low >= 3:
		return RiskLow
	default:
		return RiskNone
	}
}

// negated reports whether a negation cue directly precedes the match within
// the same clause. Punctuation resets the window so "I'm not fine, I want to
// kill myself" is not masked by the earlier "not".
func negated(text string, start int) bool {
	from := start - negationWindow
	if from < 0 {
		from = 0
	}
	window := text[from:start]
	if i := strings.LastIndexAny(window, ".,;:!?"); i >= 0 {
		window = window[i+1:]
	}
	return negationRe.MatchString(window)
}
