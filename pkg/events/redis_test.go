package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mindhaven/bastion/pkg/crisis"
)

func TestRedisPublisherPublishesJSON(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	sub := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { sub.Close() })

	ctx := context.Background()
	pubsub := sub.Subscribe(ctx, FlagChannel)
	t.Cleanup(func() { pubsub.Close() })
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	p := NewRedisPublisher(client, nil)
	event := sampleEvent()
	if err := p.PublishFlagCreated(ctx, event); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-pubsub.Channel():
		var got crisis.FlagCreated
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("payload is not valid JSON: %v", err)
		}
		if got.Flag.ID != event.Flag.ID || got.Flag.Keyword != "suicide" {
			t.Errorf("round-tripped event mismatch: %+v", got.Flag)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on the flag channel")
	}
}

func TestRedisPublisherConnectionFailure(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	srv.Close()

	p := NewRedisPublisher(client, nil)
	if err := p.PublishFlagCreated(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected an error when redis is unreachable")
	}
}
