package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlowe/magichome/log"
)

var (
	// ErrNoMarshaler is the error returned by Value.Write when the Value has no ValueMarshaler.
	ErrNoMarshaler = errors.New("no marshaler configured")
	// ErrNeverWritten is the error returned by Value.Republish when Value.Write was never called successfully.
	ErrNeverWritten = errors.New("value was never written")
)

// Value is state this process publishes to a topic, such as the current brightness of a light.
type Value[T any] struct {
	topic     string
	marshaler ValueMarshaler[T]
	opts      WriteOptions

	mu          sync.RWMutex
	v           T
	initialized bool

	log *slog.Logger
}

// NewValue constructs a Value for the provided topic using default WriteOptions (QoS 0, no retain).
func NewValue[T any](topic string, marshal ValueMarshaler[T]) *Value[T] {
	return NewValueWithOptions(topic, marshal, WriteOptions{})
}

// NewValueWithOptions constructs a Value for the provided topic using the provided WriteOptions.
func NewValueWithOptions[T any](topic string, marshal ValueMarshaler[T], opts WriteOptions) *Value[T] {
	return &Value[T]{
		topic:     topic,
		marshaler: marshal,
		opts:      opts,

		log: log.ForComponent("mqtt.value").With(slog.String("topic", topic)),
	}
}

// FullyQualifiedTopic calculates the MQTT Topic for this value under prefix. A nil Value has no topic.
func (v *Value[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// Get returns the most recently written value and whether it was ever written.
func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.initialized
}

// Write encodes newValue and publishes it under prefix. The held value is updated even if publishing fails, so a
// later Republish can retry it.
func (v *Value[T]) Write(ctx context.Context, w Writer, prefix string, newValue T) error {
	if v == nil {
		return nil
	}

	if v.marshaler == nil {
		return ErrNoMarshaler
	}

	data, err := v.marshaler(newValue)
	if err != nil {
		return fmt.Errorf("marshal %+v: %w", newValue, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.v, v.initialized = newValue, true
	v.log.With(slog.String("payload", string(data))).Debug("Publishing value")
	return w.WriteTopic(ctx, JoinTopic(prefix, v.topic), v.opts, data)
}

// Republish writes the held value again. Used to restore state topics after Home Assistant restarts.
func (v *Value[T]) Republish(ctx context.Context, w Writer, prefix string) error {
	if v == nil {
		return nil
	}

	current, ok := v.Get()
	if !ok {
		return ErrNeverWritten
	}

	return v.Write(ctx, w, prefix, current)
}
