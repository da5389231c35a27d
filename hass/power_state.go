package hass

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlowe/magichome/mqtt"
)

// PowerState represents on/off state for a light, as written to its state and command topics.
type PowerState string

const (
	PowerStateOn      PowerState = "ON"
	PowerStateOff     PowerState = "OFF"
	PowerStateUnknown PowerState = "None"
)

// PowerStateFor returns PowerStateOn or PowerStateOff.
func PowerStateFor(on bool) PowerState {
	if on {
		return PowerStateOn
	}

	return PowerStateOff
}

// On reports whether p is PowerStateOn.
func (p PowerState) On() bool {
	return p == PowerStateOn
}

var (
	PowerStateMarshaler mqtt.ValueMarshaler[PowerState] = func(v PowerState) ([]byte, error) {
		return mqtt.StringMarshaler(string(v))
	}

	// PowerStateUnmarshaler accepts ON and OFF in any case. Anything else is rejected so a malformed command never
	// switches a light off.
	PowerStateUnmarshaler mqtt.ValueUnmarshaler[PowerState] = func(bytes []byte) (PowerState, error) {
		switch v := PowerState(strings.ToUpper(strings.TrimSpace(string(bytes)))); v {
		case PowerStateOn, PowerStateOff:
			return v, nil
		default:
			return PowerStateUnknown, fmt.Errorf("invalid power state: %q", bytes)
		}
	}
)

// CustomPowerState configures custom payloads for on and off. It implements slog.LogValuer.
type CustomPowerState struct {
	On  PowerState
	Off PowerState
}

func (c CustomPowerState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("on_value", string(c.On)),
		slog.String("off_value", string(c.Off)),
	)
}
