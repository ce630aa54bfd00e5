package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mindhaven/bastion/pkg/crisis"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind loses events rather than stalling publishers.
const subscriberBuffer = 16

// Broker fans flag events out to in-process subscribers, typically the
// dashboard's event stream handlers.
type Broker struct {
	mu   sync.Mutex
	subs map[chan crisis.FlagCreated]struct{}
	log  *slog.Logger
}

// NewBroker builds an empty broker. log may be nil.
func NewBroker(log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	return &Broker{
		subs: make(map[chan crisis.FlagCreated]struct{}),
		log:  log,
	}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the subscription; the channel is closed by it.
func (b *Broker) Subscribe() (<-chan crisis.FlagCreated, func()) {
	ch := make(chan crisis.FlagCreated, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// PublishFlagCreated delivers the event to every subscriber without blocking.
// Full subscriber buffers drop the event for that subscriber only.
func (b *Broker) PublishFlagCreated(_ context.Context, e crisis.FlagCreated) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.log.Warn("event dropped for slow subscriber", "flag_id", e.Flag.ID)
		}
	}
	return nil
}

// SubscriberCount reports active subscriptions, used by health reporting.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Tee publishes each event to every wrapped publisher, keeping the first
// error but attempting all of them.
type Tee []crisis.Publisher

func (t Tee) PublishFlagCreated(ctx context.Context, e crisis.FlagCreated) error {
	var first error
	for _, p := range t {
		if err := p.PublishFlagCreated(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
