package mqtt

import (
	"fmt"
	"log/slog"
)

// QualityOfService determines what level of guarantee the broker should provide when delivering messages. It implements
// fmt.Stringer and slog.LogValuer.
type QualityOfService uint8

func (q QualityOfService) String() string {
	switch q {
	case QOSAtMostOnce:
		return "at most once (0)"
	case QOSAtLeastOnce:
		return "at least once (1)"
	case QOSExactlyOnce:
		return "exactly once (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(q))
	}
}

func (q QualityOfService) LogValue() slog.Value {
	return slog.StringValue(q.String())
}

const (
	// QOSAtMostOnce is fire and forget. This is the default.
	QOSAtMostOnce QualityOfService = iota
	// QOSAtLeastOnce requires a PUBACK from the receiver.
	QOSAtLeastOnce
	// QOSExactlyOnce uses the full PUBLISH, PUBREC, PUBREL, PUBCOMP handshake.
	QOSExactlyOnce
)

// WriteOptions holds options for writing to MQTT. The zero value uses a QoS of 0 without retain. It implements
// slog.LogValuer.
type WriteOptions struct {
	QoS QualityOfService

	// Retain asks the broker to keep the last message on the topic and replay it to new subscribers. State topics for
	// lights are retained so Home Assistant sees the last known state after it restarts.
	Retain bool
}

func (w WriteOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", w.QoS),
		slog.Bool("retain", w.Retain),
	)
}

// RetainHandling adjusts when the broker sends retained messages to a new subscription. It implements fmt.Stringer.
type RetainHandling uint8

func (r RetainHandling) String() string {
	switch r {
	case RetainHandlingSendOnSubscribe:
		return "send on subscribe (0)"
	case RetainHandlingSendOnNewSubscribe:
		return "send on new subscribe (1)"
	case RetainHandlingIgnoreRetained:
		return "ignore retained (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(r))
	}
}

const (
	RetainHandlingSendOnSubscribe RetainHandling = iota
	RetainHandlingSendOnNewSubscribe
	RetainHandlingIgnoreRetained
)

// ReadOptions holds options for MQTT subscriptions. It implements slog.LogValuer.
type ReadOptions struct {
	QoS QualityOfService

	// NoLocal stops the broker from echoing messages this client published back to it.
	NoLocal bool

	// RetainAsPublished keeps the retain flag on forwarded messages.
	RetainAsPublished bool

	RetainHandling RetainHandling
}

func (r ReadOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", r.QoS),
		slog.Bool("no_local", r.NoLocal),
		slog.Bool("retain_as_published", r.RetainAsPublished),
		slog.String("retain_handling", r.RetainHandling.String()),
	)
}
