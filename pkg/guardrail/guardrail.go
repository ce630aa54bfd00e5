// Package guardrail moderates AI-generated replies before delivery. Checks
// are synchronous, deterministic and never return an error; an unsafe or
// empty reply is replaced by a safe fallback rather than failing the request.
package guardrail

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindhaven/bastion/pkg/patterns"
	"github.com/mindhaven/bastion/pkg/safety"
)

// Action is the moderation outcome for a candidate reply.
type Action string

const (
	// ActionNone delivers the reply unchanged.
	ActionNone Action = "NONE"
	// ActionFlagged delivers the reply but records it for review.
	ActionFlagged Action = "FLAGGED"
	// ActionBlocked replaces the reply with the safe fallback.
	ActionBlocked Action = "BLOCKED"
)

// SafeFallback replaces blocked replies.
const SafeFallback = "I'm really concerned about how you're feeling right now. " +
	"I can't share that response, but you don't have to face this alone. " +
	"Please consider reaching out to a crisis helpline or a mental health " +
	"professional who can support you."

// empathyPrefix softens dismissive-but-delivered replies for users already
// classified as crisis-grade.
const empathyPrefix = "I hear how hard things are for you right now. "

// maxReplyLength flags runaway generations for review.
const maxReplyLength = 2000

// Result is the moderation decision. Reason is non-empty whenever Action is
// not NONE. FinalReply is what the caller should deliver.
type Result struct {
	Action     Action `json:"action"`
	Reason     string `json:"reason,omitempty"`
	FinalReply string `json:"final_reply"`
}

// Guardrail checks candidate replies against the moderation categories of
// the shared pattern registry.
type Guardrail struct {
	registry *patterns.Registry
	log      *slog.Logger
}

// New returns a guardrail. log may be nil.
func New(log *slog.Logger) *Guardrail {
	if log == nil {
		log = slog.Default()
	}
	return &Guardrail{
		registry: patterns.Get(),
		log:      log,
	}
}

var unsafeCategories = []patterns.Category{
	patterns.CategoryHarmDirective,
	patterns.CategoryMedicalDosing,
	patterns.CategoryDiagnosisClaim,
	patterns.CategoryDismissive,
}

// Check moderates reply given the risk level already computed for the
// triggering user message.
//
// Rules, in order:
//   - empty reply is BLOCKED, never silently delivered
//   - self-harm directives are BLOCKED unconditionally
//   - dosing instructions are BLOCKED for crisis-grade users, FLAGGED otherwise
//   - diagnosis claims are FLAGGED
//   - dismissive advice is FLAGGED, never NONE; crisis-grade users get an
//     empathetic prefix on the delivered reply
//   - referral and coping language is explicitly safe and never moderated
//   - overlong replies are FLAGGED for review
func (g *Guardrail) Check(reply string, userRisk safety.RiskLevel) Result {
	if strings.TrimSpace(reply) == "" {
		return Result{
			Action:     ActionBlocked,
			Reason:     "empty reply",
			FinalReply: SafeFallback,
		}
	}

	if p := g.registry.MatchAny(reply, patterns.CategoryHarmDirective); p != nil {
		g.log.Warn("reply blocked", "category", p.Category, "pattern", p.Name)
		return Result{
			Action:     ActionBlocked,
			Reason:     fmt.Sprintf("harm directive: %s", p.Name),
			FinalReply: SafeFallback,
		}
	}

	// Referral and coping suggestions short-circuit when nothing unsafe
	// matched alongside them.
	if g.registry.MatchAny(reply, patterns.CategorySafeReferral, patterns.CategorySafeCoping) != nil &&
		g.registry.MatchAny(reply, unsafeCategories...) == nil {
		return Result{Action: ActionNone, FinalReply: reply}
	}

	if p := g.registry.MatchAny(reply, patterns.CategoryMedicalDosing); p != nil {
		if userRisk.Crisis() {
			g.log.Warn("reply blocked", "category", p.Category, "pattern", p.Name)
			return Result{
				Action:     ActionBlocked,
				Reason:     fmt.Sprintf("medication dosing advice: %s", p.Name),
				FinalReply: SafeFallback,
			}
		}
		return Result{
			Action:     ActionFlagged,
			Reason:     fmt.Sprintf("medication dosing advice: %s", p.Name),
			FinalReply: reply,
		}
	}

	if p := g.registry.MatchAny(reply, patterns.CategoryDiagnosisClaim); p != nil {
		return Result{
			Action:     ActionFlagged,
			Reason:     fmt.Sprintf("diagnosis claim: %s", p.Name),
			FinalReply: reply,
		}
	}

	if p := g.registry.MatchAny(reply, patterns.CategoryDismissive); p != nil {
		final := reply
		if userRisk.Crisis() {
			final = empathyPrefix + reply
		}
		return Result{
			Action:     ActionFlagged,
			Reason:     fmt.Sprintf("dismissive advice: %s", p.Name),
			FinalReply: final,
		}
	}

	if len(reply) > maxReplyLength {
		return Result{
			Action:     ActionFlagged,
			Reason:     fmt.Sprintf("reply length %d exceeds %d", len(reply), maxReplyLength),
			FinalReply: reply,
		}
	}

	return Result{Action: ActionNone, FinalReply: reply}
}
