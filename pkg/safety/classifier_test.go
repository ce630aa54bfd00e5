package safety

import (
	"context"
	"errors"
	"testing"
)

// stubScorer returns a fixed score for every non-blank message.
type stubScorer struct {
	score float64
	ok    bool
	err   error
}

func (s stubScorer) Score(_ context.Context, text string) (float64, bool, error) {
	if text == "" {
		return 0, false, ErrBlankText
	}
	return s.score, s.ok, s.err
}

func TestClassifyCurrentMessage(t *testing.T) {
	c := NewClassifier(NewDetector(), nil, nil)
	ctx := context.Background()

	testCases := []struct {
		name string
		text string
		want RiskLevel
	}{
		{"empty input", "", RiskNone},
		{"whitespace only", "  \n ", RiskNone},
		{"neutral", "made pancakes and went for a run", RiskNone},
		{"direct intent", "I want to kill myself", RiskCritical},
		{"suicide plan", "I wrote my suicide note yesterday", RiskCritical},
		{"overdose", "I've been thinking about overdosing", RiskCritical},
		{"high tier", "I wish I was dead", RiskHigh},
		{"end it all", "I just want to end it all", RiskHigh},
		{"medium tier", "I've been cutting again", RiskMedium},
		{"worthless", "I feel worthless most days", RiskMedium},
		{"low tier hopeless", "everything feels hopeless lately", RiskLow},
		{"mild stress", "I feel a bit stressed about work", RiskLow},
		{"anxiety", "my anxiety has been bad this week", RiskLow},
		{"burnout", "I'm completely burned out", RiskLow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(ctx, tc.text, nil)
			if got != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassifyNegation(t *testing.T) {
	c := NewClassifier(NewDetector(), nil, nil)
	ctx := context.Background()

	testCases := []struct {
		name string
		text string
		want RiskLevel
	}{
		{"never hurt myself", "I would never hurt myself", RiskNone},
		{"dont want to die", "I don't want to die", RiskNone},
		{"not suicidal", "I'm not suicidal, just tired", RiskNone},
		{"negation does not mask later statement", "I'm not fine, I want to kill myself", RiskCritical},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(ctx, tc.text, nil)
			if got != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassifyMultipleCrisisSignals(t *testing.T) {
	c := NewClassifier(NewDetector(), nil, nil)

	// Two distinct crisis labels in a single message
	got := c.Classify(context.Background(), "I want to die and end my life", nil)
	if got != RiskCritical {
		t.Errorf("expected CRITICAL for two distinct crisis signals, got %s", got)
	}
}

func TestClassifyCrisisLabelFloorsHigh(t *testing.T) {
	c := NewClassifier(NewDetector(), nil, nil)

	// A crisis label without critical tier vocabulary still lands at HIGH
	got := c.Classify(context.Background(), "I don't want to be alive", nil)
	if got != RiskHigh {
		t.Errorf("expected HIGH floor for crisis signal, got %s", got)
	}
}

func TestClassifyScorerEscalation(t *testing.T) {
	ctx := context.Background()
	text := "I've been self-harming again"

	// Confident scorer escalates a single crisis signal to CRITICAL
	c := NewClassifier(NewDetector(), stubScorer{score: 0.92, ok: true}, nil)
	if got := c.Classify(ctx, text, nil); got != RiskCritical {
		t.Errorf("expected CRITICAL with confident scorer, got %s", got)
	}

	// Low-confidence score leaves the keyword level alone
	c = NewClassifier(NewDetector(), stubScorer{score: 0.3, ok: true}, nil)
	if got := c.Classify(ctx, text, nil); got != RiskHigh {
		t.Errorf("expected HIGH with low score, got %s", got)
	}

	// Scorer failure degrades silently to keyword-only
	c = NewClassifier(NewDetector(), stubScorer{err: errors.New("connection refused")}, nil)
	if got := c.Classify(ctx, text, nil); got != RiskHigh {
		t.Errorf("expected HIGH when scorer fails, got %s", got)
	}

	// Scorer with no signal does not escalate
	c = NewClassifier(NewDetector(), stubScorer{ok: false}, nil)
	if got := c.Classify(ctx, text, nil); got != RiskHigh {
		t.Errorf("expected HIGH when scorer has no signal, got %s", got)
	}
}

func TestClassifyHistoryEscalation(t *testing.T) {
	c := NewClassifier(NewDetector(), nil, nil)
	ctx := context.Background()

	testCases := []struct {
		name    string
		text    string
		history []string
		want    RiskLevel
	}{
		{
			name:    "two medium-plus messages escalate to high",
			text:    "feeling numb again today",
			history: []string{"I've been cutting", "I keep hurting myself"},
			want:    RiskHigh,
		},
		{
			name:    "one medium plus two low escalates to medium",
			text:    "not a great day",
			history: []string{"I feel worthless", "so hopeless", "completely exhausted"},
			want:    RiskMedium,
		},
		{
			name:    "three low messages escalate to low",
			text:    "okay I guess",
			history: []string{"feeling hopeless", "so numb lately", "exhausted all week"},
			want:    RiskLow,
		},
		{
			name:    "old history outside the window is ignored",
			text:    "doing fine",
			history: []string{"I've been cutting", "I keep hurting myself", "fine", "fine", "fine", "fine", "fine"},
			want:    RiskNone,
		},
		{
			name:    "history never lowers the current level",
			text:    "I want to kill myself",
			history: []string{"great day", "all good"},
			want:    RiskCritical,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(ctx, tc.text, tc.history)
			if got != tc.want {
				t.Errorf("Classify(%q, %d history) = %s, want %s",
					tc.text, len(tc.history), got, tc.want)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	if RiskNone.Crisis() || RiskLow.Crisis() || RiskMedium.Crisis() {
		t.Error("levels below HIGH must not be crisis-grade")
	}
	if !RiskHigh.Crisis() || !RiskCritical.Crisis() {
		t.Error("HIGH and CRITICAL must be crisis-grade")
	}

	for _, level := range []RiskLevel{RiskNone, RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		parsed, err := ParseRiskLevel(level.String())
		if err != nil {
			t.Fatalf("ParseRiskLevel(%s): %v", level, err)
		}
		if parsed != level {
			t.Errorf("round trip %s -> %s", level, parsed)
		}
	}

	if _, err := ParseRiskLevel("SEVERE"); err == nil {
		t.Error("expected error for unknown level name")
	}
}

func TestSafetyPrompt(t *testing.T) {
	if SafetyPrompt(RiskNone) != "" {
		t.Error("NONE should have no prompt adjustment")
	}
	for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		if SafetyPrompt(level) == "" {
			t.Errorf("expected prompt adjustment for %s", level)
		}
	}
	if SafetyPrompt(RiskHigh) != SafetyPrompt(RiskCritical) {
		t.Error("HIGH and CRITICAL share crisis guidance")
	}
}
