package crisis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// --- in-memory fakes ---

type memFlagStore struct {
	mu        sync.Mutex
	flags     map[string]Flag
	existsErr error
	insertErr error
}

func newMemFlagStore() *memFlagStore {
	return &memFlagStore{flags: make(map[string]Flag)}
}

func flagKey(conversationID, keyword string) string {
	return conversationID + "|" + strings.ToLower(keyword)
}

func (s *memFlagStore) FlagExists(_ context.Context, conversationID, keyword string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.flags[flagKey(conversationID, keyword)]
	return ok, nil
}

func (s *memFlagStore) InsertFlag(_ context.Context, flag *Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	key := flagKey(flag.ConversationID, flag.Keyword)
	if _, ok := s.flags[key]; ok {
		return ErrDuplicateFlag
	}
	s.flags[key] = *flag
	return nil
}

func (s *memFlagStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flags)
}

func (s *memFlagStore) one() Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flags {
		return f
	}
	return Flag{}
}

type memSettings struct {
	enabled bool
	err     error
}

func (s memSettings) AlertsEnabled(context.Context) (bool, error) {
	return s.enabled, s.err
}

type memOperators struct {
	ops []Operator
	err error
}

func (o memOperators) ListOperators(context.Context) ([]Operator, error) {
	return o.ops, o.err
}

type memNotifStore struct {
	mu            sync.Mutex
	notifications []Notification
	sent          map[uuid.UUID]bool
	failRecipient string
}

func newMemNotifStore() *memNotifStore {
	return &memNotifStore{sent: make(map[uuid.UUID]bool)}
}

func (s *memNotifStore) InsertNotification(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRecipient != "" && n.Recipient == s.failRecipient {
		return errors.New("insert failed")
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *memNotifStore) MarkSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[id] = true
	return nil
}

func (s *memNotifStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

type memMailer struct {
	mu       sync.Mutex
	attempts map[string]int
	failFor  map[string]error
}

func newMemMailer() *memMailer {
	return &memMailer{
		attempts: make(map[string]int),
		failFor:  make(map[string]error),
	}
}

func (m *memMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[to]++
	if err, ok := m.failFor[to]; ok {
		return err
	}
	return nil
}

func (m *memMailer) attemptsFor(to string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[to]
}

type memPublisher struct {
	mu     sync.Mutex
	events []FlagCreated
	err    error
}

func (p *memPublisher) PublishFlagCreated(_ context.Context, e FlagCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixedScorer struct {
	score float64
	ok    bool
	err   error
}

func (s fixedScorer) Score(context.Context, string) (float64, bool, error) {
	return s.score, s.ok, s.err
}

// --- tests ---

func newTestEscalator(flags *memFlagStore, settings memSettings, notifs *memNotifStore, mailer Mailer, pub Publisher) *Escalator {
	ops := memOperators{ops: []Operator{
		{ID: "op-1", Name: "Asha", Email: "asha@example.com"},
		{ID: "op-2", Name: "Bijay", Email: "bijay@example.com"},
	}}
	return NewEscalator(EscalatorConfig{
		Flags:     flags,
		Settings:  settings,
		Publisher: pub,
		Fanout:    NewFanout(ops, notifs, mailer, nil),
	})
}

func TestEscalatePersistsFlagAndFansOut(t *testing.T) {
	flags := newMemFlagStore()
	notifs := newMemNotifStore()
	mailer := newMemMailer()
	pub := &memPublisher{}

	e := newTestEscalator(flags, memSettings{enabled: true}, notifs, mailer, pub)
	e.Escalate("conv-1", "user-1", "I want to kill myself")
	e.Wait()

	if flags.count() != 1 {
		t.Fatalf("expected 1 flag, got %d", flags.count())
	}
	f := flags.one()
	if f.Keyword != "kill-self" {
		t.Errorf("keyword = %q, want kill-self", f.Keyword)
	}
	if f.ConversationID != "conv-1" || f.UserID != "user-1" {
		t.Errorf("flag identifiers wrong: %+v", f)
	}
	if f.RiskScore != nil {
		t.Error("no scorer configured, risk score should be nil")
	}

	if pub.count() != 1 {
		t.Errorf("expected 1 published event, got %d", pub.count())
	}
	if notifs.count() != 2 {
		t.Errorf("expected in-app notification per operator, got %d", notifs.count())
	}
	if mailer.attemptsFor("asha@example.com") != 1 || mailer.attemptsFor("bijay@example.com") != 1 {
		t.Error("expected one email per operator")
	}
}

func TestEscalateRecordsScore(t *testing.T) {
	flags := newMemFlagStore()
	e := NewEscalator(EscalatorConfig{
		Scorer:   fixedScorer{score: 0.91, ok: true},
		Flags:    flags,
		Settings: memSettings{enabled: true},
		Fanout:   NewFanout(memOperators{}, newMemNotifStore(), nil, nil),
	})

	e.Escalate("conv-1", "user-1", "thinking about suicide")
	e.Wait()

	f := flags.one()
	if f.RiskScore == nil || *f.RiskScore != 0.91 {
		t.Errorf("risk score not recorded: %+v", f.RiskScore)
	}
}

func TestEscalateScorerFailureDoesNotBlock(t *testing.T) {
	flags := newMemFlagStore()
	e := NewEscalator(EscalatorConfig{
		Scorer:   fixedScorer{err: errors.New("scorer down")},
		Flags:    flags,
		Settings: memSettings{enabled: true},
		Fanout:   NewFanout(memOperators{}, newMemNotifStore(), nil, nil),
	})

	e.Escalate("conv-1", "user-1", "thinking about suicide")
	e.Wait()

	if flags.count() != 1 {
		t.Fatal("flag must persist even when the scorer is down")
	}
	if f := flags.one(); f.RiskScore != nil {
		t.Error("failed scorer must not produce a score")
	}
}

func TestEscalateDedup(t *testing.T) {
	flags := newMemFlagStore()
	notifs := newMemNotifStore()
	e := newTestEscalator(flags, memSettings{enabled: true}, notifs, nil, nil)

	// Sequential duplicates, same conversation and signal
	e.Escalate("conv-1", "user-1", "I want to kill myself")
	e.Wait()
	e.Escalate("conv-1", "user-1", "I really want to kill myself")
	e.Wait()

	if flags.count() != 1 {
		t.Fatalf("expected 1 flag after duplicate escalation, got %d", flags.count())
	}

	// Different conversation is a new flag
	e.Escalate("conv-2", "user-1", "I want to kill myself")
	e.Wait()
	if flags.count() != 2 {
		t.Fatalf("expected 2 flags across conversations, got %d", flags.count())
	}
}

func TestEscalateConcurrentDedup(t *testing.T) {
	flags := newMemFlagStore()
	e := newTestEscalator(flags, memSettings{enabled: true}, newMemNotifStore(), nil, nil)

	var submitted sync.WaitGroup
	for i := 0; i < 16; i++ {
		submitted.Add(1)
		go func() {
			defer submitted.Done()
			e.Escalate("conv-1", "user-1", "I want to end my life")
		}()
	}
	submitted.Wait()
	e.Wait()

	if flags.count() != 1 {
		t.Fatalf("expected exactly 1 flag under concurrent escalation, got %d", flags.count())
	}
}

func TestEscalateNoKeywordNoFlag(t *testing.T) {
	flags := newMemFlagStore()
	notifs := newMemNotifStore()
	e := newTestEscalator(flags, memSettings{enabled: true}, notifs, nil, nil)

	e.Escalate("conv-1", "user-1", "had a lovely afternoon in the park")
	e.Wait()

	if flags.count() != 0 {
		t.Error("no crisis keyword must mean no flag")
	}
	if notifs.count() != 0 {
		t.Error("no crisis keyword must mean no fanout")
	}
}

func TestEscalateAlertsDisabled(t *testing.T) {
	flags := newMemFlagStore()
	e := newTestEscalator(flags, memSettings{enabled: false}, newMemNotifStore(), nil, nil)

	e.Escalate("conv-1", "user-1", "I want to kill myself")
	e.Wait()

	if flags.count() != 0 {
		t.Error("disabled alerting must persist no flag")
	}
}

func TestEscalateSettingsErrorFailsOpen(t *testing.T) {
	flags := newMemFlagStore()
	e := newTestEscalator(flags, memSettings{err: errors.New("settings store down")}, newMemNotifStore(), nil, nil)

	e.Escalate("conv-1", "user-1", "I want to kill myself")
	e.Wait()

	if flags.count() != 1 {
		t.Error("a broken settings store must not silence alerts")
	}
}

func TestEscalateGuardsMissingInput(t *testing.T) {
	flags := newMemFlagStore()
	e := newTestEscalator(flags, memSettings{enabled: true}, newMemNotifStore(), nil, nil)

	e.Escalate("", "user-1", "I want to kill myself")
	e.Escalate("conv-1", "", "I want to kill myself")
	e.Escalate("conv-1", "user-1", "")
	e.Wait()

	if flags.count() != 0 {
		t.Error("missing identifiers or text must abort escalation")
	}
}

func TestEscalatePublishFailureDoesNotStopFanout(t *testing.T) {
	flags := newMemFlagStore()
	notifs := newMemNotifStore()
	pub := &memPublisher{err: errors.New("broker unreachable")}
	e := newTestEscalator(flags, memSettings{enabled: true}, notifs, nil, pub)

	e.Escalate("conv-1", "user-1", "I want to kill myself")
	e.Wait()

	if flags.count() != 1 {
		t.Fatal("flag must persist when publishing fails")
	}
	if notifs.count() != 2 {
		t.Error("fanout must still run when publishing fails")
	}
}

func TestEscalateExistsCheckFailureFallsThroughToConstraint(t *testing.T) {
	flags := newMemFlagStore()
	flags.existsErr = errors.New("query timeout")
	e := newTestEscalator(flags, memSettings{enabled: true}, newMemNotifStore(), nil, nil)

	e.Escalate("conv-1", "user-1", "I want to kill myself")
	e.Wait()

	if flags.count() != 1 {
		t.Error("insert must proceed when the fast-path check fails")
	}
}
