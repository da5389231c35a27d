// Package autopaho implements mqtt.Writer and mqtt.Subscriber on top of an autopaho.ConnectionManager, re-subscribing
// whenever the connection is re-established.
package autopaho

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nlowe/magichome/log"
	"github.com/nlowe/magichome/mqtt"
)

// Conn is a connection to an MQTT broker. It implements mqtt.Writer and mqtt.Subscriber.
type Conn struct {
	mu sync.Mutex

	cm *autopaho.ConnectionManager
	r  paho.Router

	subscriptions map[string]paho.SubscribeOptions

	log *slog.Logger
}

var _ mqtt.Writer = &Conn{}
var _ mqtt.Subscriber = &Conn{}

// Dial connects to the broker described by config and waits for the first connection to be established. Any
// OnConnectionUp callback in config is still called after subscriptions are restored.
func Dial(ctx context.Context, config autopaho.ClientConfig) (*Conn, error) {
	c := &Conn{
		r:             paho.NewStandardRouter(),
		subscriptions: map[string]paho.SubscribeOptions{},

		log: log.ForComponent("autopaho"),
	}

	onConnUp := config.OnConnectionUp
	config.OnConnectionUp = func(cm *autopaho.ConnectionManager, connack *paho.Connack) {
		c.resubscribe(ctx)

		if onConnUp != nil {
			onConnUp(cm, connack)
		}
	}

	// Hold the lock until c.cm is assigned so the first OnConnectionUp cannot observe a nil connection manager.
	c.mu.Lock()
	c.log.With(slog.Any("brokers", config.ServerUrls)).Info("Connecting to mqtt broker")
	cm, err := autopaho.NewConnection(ctx, config)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}
	c.cm = cm
	c.mu.Unlock()

	if err = cm.AwaitConnection(ctx); err != nil {
		return nil, fmt.Errorf("mqtt: wait for connection: %w", err)
	}

	c.log.Debug("Connected to mqtt broker")
	cm.AddOnPublishReceived(func(rx autopaho.PublishReceived) (bool, error) {
		c.r.Route(rx.Packet.Packet())
		return true, nil
	})

	return c, nil
}

// Disconnect closes the connection to the broker, sending a DISCONNECT packet so no will message is published.
func (c *Conn) Disconnect(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}

// Done is closed once the connection manager has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.cm.Done()
}

func (c *Conn) resubscribe(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subscriptions) == 0 {
		return
	}

	sub := &paho.Subscribe{
		Subscriptions: make([]paho.SubscribeOptions, 0, len(c.subscriptions)),
	}
	for _, s := range c.subscriptions {
		sub.Subscriptions = append(sub.Subscriptions, s)
	}

	c.log.With(slog.Int("count", len(sub.Subscriptions))).Debug("Reconnected to mqtt, restoring subscriptions")
	if _, err := c.cm.Subscribe(ctx, sub); err != nil {
		c.log.With(log.Error(err)).Error("Failed to restore mqtt subscriptions")
	}
}

func (c *Conn) WriteTopic(ctx context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	c.log.With(slog.String("topic", topic), slog.Any("options", options)).Debug("Publishing payload")

	_, err := c.cm.Publish(ctx, &paho.Publish{
		QoS:     uint8(options.QoS),
		Retain:  options.Retain,
		Topic:   topic,
		Payload: value,
	})

	return err
}

func (c *Conn) Subscribe(ctx context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	if len(subscriptions) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &paho.Subscribe{
		Subscriptions: make([]paho.SubscribeOptions, len(subscriptions)),
	}

	for i, s := range subscriptions {
		opts := paho.SubscribeOptions{
			Topic:             s.Topic,
			QoS:               uint8(s.Options.QoS),
			RetainHandling:    uint8(s.Options.RetainHandling),
			NoLocal:           s.Options.NoLocal,
			RetainAsPublished: s.Options.RetainAsPublished,
		}

		c.subscriptions[s.Topic] = opts
		sub.Subscriptions[i] = opts

		c.r.RegisterHandler(s.Topic, func(p *paho.Publish) {
			handler.ServeMQTT(c, p.Topic, p.Payload)
		})
	}

	c.log.With(slog.Any("subscriptions", subscriptions)).Debug("Subscribing to mqtt topics")
	_, err := c.cm.Subscribe(ctx, sub)
	return err
}

func (c *Conn) Unsubscribe(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range topics {
		delete(c.subscriptions, t)
		c.r.UnregisterHandler(t)
	}

	c.log.With(slog.Any("topics", topics)).Debug("Unsubscribing from mqtt topics")
	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{
		Topics: topics,
	})

	return err
}
