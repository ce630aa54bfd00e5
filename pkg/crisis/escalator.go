package crisis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindhaven/bastion/pkg/httputil"
	"github.com/mindhaven/bastion/pkg/safety"
)

// defaultEscalationTimeout bounds a single escalation run, including the
// scorer call and notification fanout.
const defaultEscalationTimeout = 30 * time.Second

// defaultMaxConcurrent bounds in-flight escalations; beyond it new requests
// are dropped and counted rather than queued.
const defaultMaxConcurrent = 64

// EscalatorConfig wires the escalator's collaborators. Flags, Settings and
// Fanout are required; Scorer and Publisher are optional.
type EscalatorConfig struct {
	Detector      *safety.Detector
	Scorer        safety.RiskScorer
	Flags         FlagStore
	Settings      SettingsStore
	Publisher     Publisher
	Fanout        *Fanout
	MaxConcurrent int
	Timeout       time.Duration
	Log           *slog.Logger
}

// Escalator runs the asynchronous crisis pipeline. Escalate never blocks the
// caller and never propagates a failure to it; the persisted Flag is the
// durable guarantee, everything after it is best-effort.
type Escalator struct {
	detector  *safety.Detector
	scorer    safety.RiskScorer
	flags     FlagStore
	settings  SettingsStore
	publisher Publisher
	fanout    *Fanout
	sem       *httputil.Semaphore
	timeout   time.Duration
	log       *slog.Logger
	wg        sync.WaitGroup
}

// NewEscalator builds an escalator from cfg.
func NewEscalator(cfg EscalatorConfig) *Escalator {
	if cfg.Detector == nil {
		cfg.Detector = safety.NewDetector()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEscalationTimeout
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Escalator{
		detector:  cfg.Detector,
		scorer:    cfg.Scorer,
		flags:     cfg.Flags,
		settings:  cfg.Settings,
		publisher: cfg.Publisher,
		fanout:    cfg.Fanout,
		sem:       httputil.NewSemaphore(cfg.MaxConcurrent),
		timeout:   cfg.Timeout,
		log:       cfg.Log,
	}
}

// Escalate submits one escalation for an inbound user message and returns
// immediately. Invoking it multiple times for the same underlying event is
// safe: the (conversation, keyword) uniqueness constraint dedups. Only
// identifiers are ever logged, never message text.
func (e *Escalator) Escalate(conversationID, userID, text string) {
	if !e.sem.TryAcquire() {
		e.log.Warn("escalation dropped, too many in flight",
			"conversation_id", conversationID,
			"dropped_total", e.sem.DroppedCount())
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.sem.Release()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("escalation panicked",
					"conversation_id", conversationID,
					"user_id", userID,
					"panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.run(ctx, conversationID, userID, text)
	}()
}

func (e *Escalator) run(ctx context.Context, conversationID, userID, text string) {
	if conversationID == "" || userID == "" || text == "" {
		e.log.Debug("escalation skipped, missing input",
			"conversation_id", conversationID, "user_id", userID)
		return
	}

	enabled, err := e.settings.AlertsEnabled(ctx)
	if err != nil {
		// Fail open: a broken settings store must not silence alerts
		e.log.Warn("alerting setting unavailable, assuming enabled", "error", err)
		enabled = true
	}
	if !enabled {
		return
	}

	keyword := e.detector.DetectKeyword(text)
	if keyword == "" {
		return
	}

	var riskScore *float64
	if e.scorer != nil {
		score, ok, err := e.scorer.Score(ctx, text)
		switch {
		case err != nil:
			e.log.Debug("risk scorer unavailable during escalation", "error", err)
		case ok:
			riskScore = &score
		}
	}

	// Fast path only; the database constraint is the arbiter under races
	exists, err := e.flags.FlagExists(ctx, conversationID, keyword)
	if err != nil {
		e.log.Warn("flag existence check failed, relying on constraint", "error", err)
	} else if exists {
		e.log.Debug("crisis flag already recorded",
			"conversation_id", conversationID, "keyword", keyword)
		return
	}

	flag := &Flag{
		ID:             uuid.New(),
		ConversationID: conversationID,
		UserID:         userID,
		Keyword:        keyword,
		RiskScore:      riskScore,
		CreatedAt:      time.Now().UTC(),
	}

	if err := e.flags.InsertFlag(ctx, flag); err != nil {
		if errors.Is(err, ErrDuplicateFlag) {
			// Lost the race to a concurrent escalation: successful dedup
			e.log.Debug("concurrent escalation already persisted flag",
				"conversation_id", conversationID, "keyword", keyword)
			return
		}
		e.log.Error("crisis flag insert failed",
			"conversation_id", conversationID,
			"user_id", userID,
			"keyword", keyword,
			"error", err)
		return
	}

	e.log.Info("crisis flag recorded",
		"flag_id", flag.ID,
		"conversation_id", conversationID,
		"user_id", userID,
		"keyword", keyword)

	if e.publisher != nil {
		event := FlagCreated{Flag: *flag, OccurredAt: time.Now().UTC()}
		if err := e.publisher.PublishFlagCreated(ctx, event); err != nil {
			e.log.Warn("flag event publish failed", "flag_id", flag.ID, "error", err)
		}
	}

	if e.fanout != nil {
		title := "Crisis alert"
		body := fmt.Sprintf("Crisis signal %q detected in conversation %s (user %s). Review it in the dashboard.",
			keyword, conversationID, userID)
		e.fanout.Notify(ctx, title, body)
	}
}

// Wait blocks until all in-flight escalations finish. Used by shutdown and
// tests.
func (e *Escalator) Wait() {
	e.wg.Wait()
}

// Stats exposes dispatch backpressure counters.
func (e *Escalator) Stats() httputil.SemaphoreStats {
	return e.sem.Stats()
}
