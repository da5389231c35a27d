package mqtt

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nlowe/magichome/log"
)

// RemoteValue holds a value received from a topic, such as the brightness Home Assistant wants a light to have.
type RemoteValue[T any] struct {
	topic       string
	unmarshaler ValueUnmarshaler[T]
	opts        ReadOptions

	mu          sync.RWMutex
	watchers    map[int]func(T)
	nextWatcher int
	v           T
	initialized bool

	log *slog.Logger
}

// NewRemoteValue constructs a RemoteValue for topic using default ReadOptions.
func NewRemoteValue[T any](topic string, unmarshaler ValueUnmarshaler[T]) *RemoteValue[T] {
	return NewRemoteValueWithOptions(topic, unmarshaler, ReadOptions{})
}

// NewRemoteValueWithOptions constructs a RemoteValue for topic using the provided ReadOptions.
func NewRemoteValueWithOptions[T any](topic string, unmarshaler ValueUnmarshaler[T], opts ReadOptions) *RemoteValue[T] {
	return &RemoteValue[T]{
		topic:       topic,
		unmarshaler: unmarshaler,
		opts:        opts,
		watchers:    map[int]func(T){},

		log: log.ForComponent("mqtt.remote").With(slog.String("topic", topic)),
	}
}

// ServeMQTT implements Handler. If topic matches, the payload is decoded, stored, and passed to every watcher in
// registration order. Payloads that fail to decode are logged and dropped.
func (v *RemoteValue[T]) ServeMQTT(_ Writer, topic string, payload []byte) {
	if v == nil || v.topic != topic {
		return
	}

	if v.unmarshaler == nil {
		v.log.Warn("No unmarshaler configured, dropping payload")
		return
	}

	parsed, err := v.unmarshaler(payload)
	if err != nil {
		v.log.With(slog.String("payload", string(payload)), log.Error(err)).Warn("Failed to unmarshal payload from mqtt")
		return
	}

	v.mu.Lock()
	v.v, v.initialized = parsed, true
	watchers := make([]func(T), 0, len(v.watchers))
	for id := 0; id < v.nextWatcher; id++ {
		if w, ok := v.watchers[id]; ok {
			watchers = append(watchers, w)
		}
	}
	v.mu.Unlock()

	v.log.With(slog.Any("v", parsed), slog.Int("watchers", len(watchers))).Debug("Received value from mqtt")
	for _, w := range watchers {
		w(parsed)
	}
}

// FullyQualifiedTopic calculates the MQTT Topic for this value under prefix. A nil RemoteValue has no topic.
func (v *RemoteValue[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// AppendSubscriptions adds a Subscription for this value to existing if it is not nil and has a topic.
func (v *RemoteValue[T]) AppendSubscriptions(existing []Subscription, prefix string) []Subscription {
	if v == nil || v.topic == "" {
		return existing
	}

	return append(existing, Subscription{
		Topic:   v.FullyQualifiedTopic(prefix),
		Options: v.opts,
	})
}

// Get returns the most recently received value and whether one has been received.
func (v *RemoteValue[T]) Get() (T, bool) {
	if v == nil {
		var zero T
		return zero, false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.initialized
}

// Watch registers a callback for every value received and returns an id for Unwatch. Watchers are called on the
// goroutine delivering MQTT messages; they must not block. A nil RemoteValue never receives anything, so the callback
// is dropped and -1 is returned.
func (v *RemoteValue[T]) Watch(callback func(T)) int {
	if v == nil {
		return -1
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextWatcher
	v.nextWatcher++
	v.watchers[id] = callback

	return id
}

// Unwatch removes the callback registered with id.
func (v *RemoteValue[T]) Unwatch(id int) {
	if v == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.watchers[id]; !ok {
		v.log.With(slog.Int("id", id)).Warn("Tried to remove an unknown watcher")
		return
	}

	delete(v.watchers, id)
}

// DesiredValue builds an Await filter that matches v exactly.
func DesiredValue[T comparable](v T) func(T) bool {
	return func(vv T) bool {
		return v == vv
	}
}

// Await blocks until a received value passes desired or ctx is done.
func (v *RemoteValue[T]) Await(ctx context.Context, desired func(T) bool) (T, error) {
	found := make(chan T, 1)

	id := v.Watch(func(t T) {
		if desired(t) {
			select {
			case found <- t:
			default:
			}
		}
	})
	defer v.Unwatch(id)

	if current, ok := v.Get(); ok && desired(current) {
		return current, nil
	}

	select {
	case got := <-found:
		return got, nil
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
