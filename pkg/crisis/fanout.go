package crisis

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// maxEmailAttempts bounds retries for transient email failures.
const maxEmailAttempts = 3

// emailRetryBackoff is the base delay between attempts, scaled linearly.
const emailRetryBackoff = 200 * time.Millisecond

// Fanout delivers an alert to every operator: an in-app notification record
// first, then a best-effort email. Recipients are isolated from each other's
// failures, and a misconfigured mail provider never masks the in-app channel.
type Fanout struct {
	operators  OperatorDirectory
	store      NotificationStore
	mailer     Mailer
	log        *slog.Logger
	authWarned atomic.Bool
}

// NewFanout builds a fanout. mailer may be nil to disable the email channel.
func NewFanout(operators OperatorDirectory, store NotificationStore, mailer Mailer, log *slog.Logger) *Fanout {
	if log == nil {
		log = slog.Default()
	}
	return &Fanout{
		operators: operators,
		store:     store,
		mailer:    mailer,
		log:       log,
	}
}

// Notify delivers title/body to all current operators. It never returns an
// error; every failure is logged and contained to the recipient it hit.
func (f *Fanout) Notify(ctx context.Context, title, body string) {
	ops, err := f.operators.ListOperators(ctx)
	if err != nil {
		f.log.Error("operator enumeration failed, alert not fanned out", "error", err)
		return
	}
	if len(ops) == 0 {
		f.log.Warn("no operator accounts configured for crisis alerts")
		return
	}

	for _, op := range ops {
		f.notifyOne(ctx, op, title, body)
	}
}

func (f *Fanout) notifyOne(ctx context.Context, op Operator, title, body string) {
	n := &Notification{
		ID:        uuid.New(),
		Recipient: op.ID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	inAppOK := true
	if err := f.store.InsertNotification(ctx, n); err != nil {
		inAppOK = false
		f.log.Error("in-app notification failed", "operator_id", op.ID, "error", err)
	}

	if f.mailer == nil || op.Email == "" {
		return
	}

	if err := f.sendEmail(ctx, op.Email, title, body); err != nil {
		return
	}
	if inAppOK {
		if err := f.store.MarkSent(ctx, n.ID); err != nil {
			f.log.Warn("notification sent-flag update failed", "notification_id", n.ID, "error", err)
		}
	}
}

// sendEmail retries transient failures up to maxEmailAttempts. An auth or
// configuration failure is not retried: it is logged once per fanout
// lifetime as an operational warning, since alerts stay visible in-app.
func (f *Fanout) sendEmail(ctx context.Context, to, subject, body string) error {
	var lastErr error
	for attempt := 1; attempt <= maxEmailAttempts; attempt++ {
		err := f.mailer.Send(ctx, to, subject, body)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrAuthFailed) {
			if f.authWarned.CompareAndSwap(false, true) {
				f.log.Warn("mail provider authentication failed, crisis alerts remain visible in-app",
					"error", err)
			}
			return err
		}

		lastErr = err
		f.log.Debug("alert email attempt failed",
			"recipient", to, "attempt", attempt, "error", err)

		if attempt < maxEmailAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * emailRetryBackoff):
			}
		}
	}

	f.log.Warn("alert email delivery failed after retries", "recipient", to, "error", lastErr)
	return lastErr
}
