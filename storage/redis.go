package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
	"github.com/hidenkeys/studios/booking"
)

const eventsChannel = "studios:reservations"

type envelope struct {
	Origin string        `json:"origin"`
	Event  booking.Event `json:"event"`
}

// RedisBroker shares reservation events between instances. Local subscribers
// are notified immediately; messages coming back from Redis with this
// instance's origin are dropped.
type RedisBroker struct {
	local  *LocalBroker
	client *redis.Client
	origin string
	pubsub *redis.PubSub
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewRedisBroker(ctx context.Context, url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return newRedisBroker(ctx, client), nil
}

func newRedisBroker(ctx context.Context, client *redis.Client) *RedisBroker {
	b := &RedisBroker{
		local:  NewLocalBroker(),
		client: client,
		origin: uuid.NewString(),
		pubsub: client.Subscribe(ctx, eventsChannel),
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.receive()
	log.Infof("reservation events shared over redis channel %s", eventsChannel)
	return b
}

func (b *RedisBroker) receive() {
	defer b.wg.Done()
	ch := b.pubsub.Channel()
	for {
		select {
		case <-b.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.deliver(msg.Payload)
		}
	}
}

// deliver hands a message from another instance to the local subscribers.
func (b *RedisBroker) deliver(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Warnf("dropping malformed reservation event: %v", err)
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.local.Publish(env.Event)
}

func (b *RedisBroker) Subscribe(scope booking.Scope, fn func(booking.Event)) func() {
	return b.local.Subscribe(scope, fn)
}

func (b *RedisBroker) Publish(e booking.Event) {
	b.local.Publish(e)

	payload, err := json.Marshal(envelope{Origin: b.origin, Event: e})
	if err != nil {
		log.Errorf("encode reservation event: %v", err)
		return
	}
	if err := b.client.Publish(context.Background(), eventsChannel, payload).Err(); err != nil {
		log.Warnf("publish reservation event %s: %v", e.ID, err)
	}
}

func (b *RedisBroker) Close() error {
	close(b.done)
	err := b.pubsub.Close()
	b.wg.Wait()
	if cerr := b.client.Close(); err == nil {
		err = cerr
	}
	return err
}
