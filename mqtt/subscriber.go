package mqtt

import (
	"context"
	"log/slog"
)

// Subscription is a topic to subscribe to and how the broker should deliver it. It implements fmt.Stringer and
// slog.LogValuer.
type Subscription struct {
	Topic   string
	Options ReadOptions
}

func (s Subscription) String() string {
	return s.Topic
}

func (s Subscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("topic", s.Topic),
		slog.Any("options", s.Options),
	)
}

// Handler receives messages for a Subscription, like http.Handler does for requests.
//
// Messages are delivered one at a time, so handlers must not block: anything slow (like running flux_led) belongs on
// its own goroutine. The Writer and message are only valid until ServeMQTT returns.
type Handler interface {
	ServeMQTT(w Writer, topic string, message []byte)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(w Writer, topic string, message []byte)

func (f HandlerFunc) ServeMQTT(w Writer, topic string, message []byte) {
	f(w, topic, message)
}

// Subscriber routes messages from the broker to handlers.
type Subscriber interface {
	// Subscribe delivers messages for every subscription to handler.
	Subscribe(ctx context.Context, handler Handler, subscriptions ...Subscription) error
	// Unsubscribe stops delivery for the specified topics.
	Unsubscribe(ctx context.Context, topics ...string) error
}
