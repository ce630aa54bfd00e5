// Package patterns provides a centralized, high-performance pattern registry
// for crisis and moderation detection. All regex patterns are compiled once at
// package init and shared across the detector, classifier and guardrail.
//
// Design principles:
// - COMPILE ONCE: All patterns compiled at init, not per-request
// - DRY: Single source of truth for all safety patterns
// - CATEGORIZED: Patterns organized by category for targeted scans
// - NORMALIZED: Crisis patterns carry a low-cardinality label (Pattern.Name)
//   so raw message text never has to be echoed into records or logs
package patterns

import (
	"regexp"
	"sync"
)

// Category represents a safety pattern category
type Category string

const (
	// Inbound user text: normalized crisis keyword labels
	CategoryCrisis Category = "crisis"

	// Inbound user text: leveled vocabularies used by the risk classifier
	CategoryRiskCritical Category = "risk_critical"
	CategoryRiskHigh     Category = "risk_high"
	CategoryRiskMedium   Category = "risk_medium"
	CategoryRiskLow      Category = "risk_low"

	// Outbound AI replies: unsafe content the guardrail acts on
	CategoryHarmDirective  Category = "harm_directive"
	CategoryMedicalDosing  Category = "medical_dosing"
	CategoryDiagnosisClaim Category = "diagnosis_claim"
	CategoryDismissive     Category = "dismissive"

	// Outbound AI replies: explicitly safe language. Registered so collision
	// tests can prove the unsafe categories never swallow referral or coping
	// suggestions.
	CategorySafeReferral Category = "safe_referral"
	CategorySafeCoping   Category = "safe_coping"
)

// Pattern holds a compiled regex with metadata
type Pattern struct {
	Name        string         // Normalized label (crisis) or identifier for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Safety category
	Severity    int            // Relative weight (0-100)
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton)
// Thread-safe and guaranteed to be initialized
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

// newRegistry creates and populates the pattern registry
func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 128),
	}

	// Register all pattern categories
	r.registerCrisisPatterns()
	r.registerRiskCriticalPatterns()
	r.registerRiskHighPatterns()
	r.registerRiskMediumPatterns()
	r.registerRiskLowPatterns()
	r.registerHarmDirectivePatterns()
	r.registerMedicalDosingPatterns()
	r.registerDiagnosisClaimPatterns()
	r.registerDismissivePatterns()
	r.registerSafeReferralPatterns()
	r.registerSafeCopingPatterns()

	return r
}

// register adds a pattern to the registry (internal use only)
func (r *Registry) register(name string, pattern string, category Category, severity int, description string) {
	compiled := regexp.MustCompile(pattern)
	p := &Pattern{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Severity:    severity,
		Description: description,
	}

	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category
// Returns empty slice if category not found (never nil)
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// GetMultipleCategories returns patterns from multiple categories
// in registration order
func (r *Registry) GetMultipleCategories(cats ...Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Pattern
	for _, cat := range cats {
		if patterns, ok := r.byCategory[cat]; ok {
			result = append(result, patterns...)
		}
	}
	return result
}

// MatchAny checks if text matches any pattern in the given categories
// Returns the first matching pattern or nil
// This is optimized for early exit on first match
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	patterns := r.GetMultipleCategories(cats...)
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			return p
		}
	}
	return nil
}

// MatchAll returns all patterns that match the text in given categories
// Use when you need every match (distinct-label counting, moderation reasons)
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	patterns := r.GetMultipleCategories(cats...)
	var matches []*Pattern
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			matches = append(matches, p)
		}
	}
	return matches
}

// TotalPatterns returns the total count of registered patterns
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
