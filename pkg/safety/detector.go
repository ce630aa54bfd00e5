package safety

import (
	"strings"

	"github.com/mindhaven/bastion/pkg/patterns"
)

// Detector extracts normalized crisis labels from user text. The labels come
// from the pattern registry (Pattern.Name), so raw message text never needs
// to be stored or logged downstream.
type Detector struct {
	registry *patterns.Registry
}

// NewDetector returns a detector backed by the shared pattern registry.
func NewDetector() *Detector {
	return &Detector{registry: patterns.Get()}
}

// DetectKeyword returns the normalized label of the first crisis pattern that
// matches text, or "" when nothing matches. Empty and whitespace-only input
// never matches.
func (d *Detector) DetectKeyword(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if p := d.registry.MatchAny(text, patterns.CategoryCrisis); p != nil {
		return p.Name
	}
	return ""
}

// DetectAll returns every distinct crisis label found in text, in registry
// order. Returns nil when nothing matches.
func (d *Detector) DetectAll(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var labels []string
	seen := make(map[string]bool)
	for _, p := range d.registry.MatchAll(text, patterns.CategoryCrisis) {
		if !seen[p.Name] {
			seen[p.Name] = true
			labels = append(labels, p.Name)
		}
	}
	return labels
}
