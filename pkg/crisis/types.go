// Package crisis implements the asynchronous escalation pipeline: idempotent
// persistence of crisis detections and best-effort operator notification.
// Stores, publishers and mailers are consumer-side interfaces implemented in
// pkg/storage, pkg/events and pkg/notify.
package crisis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Flag is the durable record of a crisis detection. At most one flag exists
// per (conversation, keyword) pair, case-insensitively; flags are append-only
// and never mutated after creation. Keyword is the normalized detector label,
// never raw message text.
type Flag struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Keyword        string    `json:"keyword"`
	RiskScore      *float64  `json:"risk_score,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FlagCreated is the domain event published after a flag is persisted.
type FlagCreated struct {
	Flag       Flag      `json:"flag"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Operator is an account that receives crisis alerts.
type Operator struct {
	ID    string
	Name  string
	Email string
}

// Notification is an in-app alert for one operator. Sent reflects email
// delivery, Read reflects in-app acknowledgment; the two are independent
// booleans, not a state machine.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Sent      bool      `json:"sent"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrDuplicateFlag is returned by FlagStore.InsertFlag when the uniqueness
// constraint on (conversation, keyword) is violated. The escalator treats it
// as a successful dedup, not a failure.
var ErrDuplicateFlag = errors.New("crisis: duplicate flag")

// ErrAuthFailed marks mailer authentication/configuration failures. Mailer
// implementations must wrap it so the fanout can skip retries and log a
// single configuration warning instead.
var ErrAuthFailed = errors.New("crisis: mail authentication failed")

// FlagStore persists crisis flags. The backing store must enforce the
// (conversation, lower(keyword)) uniqueness constraint; FlagExists is a
// fast-path optimization only.
type FlagStore interface {
	FlagExists(ctx context.Context, conversationID, keyword string) (bool, error)
	InsertFlag(ctx context.Context, flag *Flag) error
}

// SettingsStore reads the alerting feature flag. Implementations return true
// when no setting has been stored.
type SettingsStore interface {
	AlertsEnabled(ctx context.Context) (bool, error)
}

// OperatorDirectory enumerates the accounts that receive crisis alerts.
// Membership is evaluated at escalation time, not retroactively.
type OperatorDirectory interface {
	ListOperators(ctx context.Context) ([]Operator, error)
}

// NotificationStore persists in-app operator notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *Notification) error
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Publisher broadcasts FlagCreated events. Publishing is best-effort; the
// persisted flag is the durable guarantee.
type Publisher interface {
	PublishFlagCreated(ctx context.Context, event FlagCreated) error
}

// Mailer sends operator alert emails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
