package hass

import (
	"log/slog"

	"github.com/nlowe/magichome/mqtt"
)

// Availability tells Home Assistant whether a device or entity is online. Home Assistant publishes its own
// Availability to <discovery prefix>/status.
type Availability string

const (
	Available   Availability = "online"
	Unavailable Availability = "offline"
)

var (
	AvailabilityMarshaler mqtt.ValueMarshaler[Availability] = func(v Availability) ([]byte, error) {
		return mqtt.StringMarshaler(string(v))
	}
	AvailabilityUnmarshaler mqtt.ValueUnmarshaler[Availability] = func(bytes []byte) (Availability, error) {
		v, err := mqtt.StringUnmarshaler(bytes)
		return Availability(v), err
	}
)

// CustomAvailability instructs Home Assistant to use different values to determine availability state. It implements
// slog.LogValuer.
type CustomAvailability struct {
	Available   Availability
	Unavailable Availability
}

func (c CustomAvailability) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("available_value", string(c.Available)),
		slog.String("unavailable_value", string(c.Unavailable)),
	)
}
