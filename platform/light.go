package platform

import (
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nlowe/magichome/discovery"
	"github.com/nlowe/magichome/hass"
	"github.com/nlowe/magichome/mqtt"
)

// LightOnCommandType configures the order Home Assistant sends power and style commands in.
type LightOnCommandType string

const (
	// LightOnCommandTypeLast sends style topics (brightness, color) first and then the on payload. Home Assistant uses
	// this when the field is omitted.
	LightOnCommandTypeLast    LightOnCommandType = "last"
	DefaultLightOnCommandType                    = LightOnCommandTypeLast
	// LightOnCommandTypeFirst sends the on payload first and then any style topics.
	LightOnCommandTypeFirst LightOnCommandType = "first"
	// LightOnCommandTypeBrightness sends only a brightness command to turn the light on.
	LightOnCommandTypeBrightness LightOnCommandType = "brightness"
)

// HueSat is the payload of a light's hs topics: hue in degrees and saturation in percent. It implements fmt.Stringer
// and slog.LogValuer.
type HueSat struct {
	Hue        float64
	Saturation float64
}

func (h HueSat) String() string {
	return strconv.FormatFloat(h.Hue, 'f', -1, 64) + "," + strconv.FormatFloat(h.Saturation, 'f', -1, 64)
}

func (h HueSat) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("hue", h.Hue),
		slog.Float64("sat", h.Saturation),
	)
}

var (
	// HueSatMarshaler writes "<hue>,<saturation>" with the hue and saturation rounded to 2 decimal places.
	HueSatMarshaler mqtt.ValueMarshaler[HueSat] = func(v HueSat) ([]byte, error) {
		return fmt.Appendf(nil, "%s,%s",
			strconv.FormatFloat(v.Hue, 'f', 2, 64),
			strconv.FormatFloat(v.Saturation, 'f', 2, 64),
		), nil
	}
	HueSatUnmarshaler mqtt.ValueUnmarshaler[HueSat] = func(bytes []byte) (HueSat, error) {
		h, s, ok := strings.Cut(string(bytes), ",")
		if !ok {
			return HueSat{}, fmt.Errorf("invalid hue,saturation representation: %q", bytes)
		}

		hue, errH := strconv.ParseFloat(strings.TrimSpace(h), 64)
		sat, errS := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err := errors.Join(errH, errS); err != nil {
			return HueSat{}, fmt.Errorf("invalid hue,saturation representation: %q: %w", bytes, err)
		}

		return HueSat{Hue: hue, Saturation: sat}, nil
	}
)

// Light is a magichome.Platform that implements the light.mqtt integration for Home Assistant using the default
// schema.
//
// See https://www.home-assistant.io/integrations/light.mqtt/
type Light struct {
	// Defines when the on payload is sent.
	OnCommandType LightOnCommandType

	// Whether Home Assistant should assume commands succeed without waiting for State.
	Optimistic bool

	// The current power state of the light
	State *mqtt.Value[hass.PowerState]
	// Home Assistant writes power commands to this value
	Command *mqtt.RemoteValue[hass.PowerState] `magichome:"required"`

	// Custom payloads for on and off
	CustomPowerStateValues hass.CustomPowerState

	// The color mode the light is currently in
	ColorMode *mqtt.Value[hass.ColorMode]
	// The color modes the light supports
	SupportedColorModes []hass.ColorMode

	// The current brightness of the light
	Brightness *mqtt.Value[uint]
	// Home Assistant writes the desired brightness to this value
	BrightnessCommand *mqtt.RemoteValue[uint]
	// The brightness value that means 100%. Home Assistant assumes 255 when omitted.
	BrightnessScale uint

	// The current hue and saturation of the light
	HueSat *mqtt.Value[HueSat]
	// Home Assistant writes the desired hue and saturation to this value
	HueSatCommand *mqtt.RemoteValue[HueSat]
}

// DefaultBrightnessScale is the brightness scale Home Assistant assumes when a light does not set one.
const DefaultBrightnessScale uint = 255

func (l *Light) PlatformName() string {
	return "light"
}

func (l *Light) Subscriptions(prefix string) []mqtt.Subscription {
	var result []mqtt.Subscription

	result = l.Command.AppendSubscriptions(result, prefix)
	result = l.BrightnessCommand.AppendSubscriptions(result, prefix)
	result = l.HueSatCommand.AppendSubscriptions(result, prefix)

	return result
}

// ServeMQTT routes a payload received on the specified topic, relative to the component's prefix, to the command value
// with that topic. Payloads for unknown topics are dropped.
func (l *Light) ServeMQTT(w mqtt.Writer, topic string, payload []byte) {
	switch topic {
	case l.Command.FullyQualifiedTopic(""):
		l.Command.ServeMQTT(w, topic, payload)
	case l.BrightnessCommand.FullyQualifiedTopic(""):
		l.BrightnessCommand.ServeMQTT(w, topic, payload)
	case l.HueSatCommand.FullyQualifiedTopic(""):
		l.HueSatCommand.ServeMQTT(w, topic, payload)
	}
}

func (l *Light) MarshalDiscoveryTo(e *jsontext.Encoder, prefix string) error {
	return errors.Join(
		discovery.ComparableUnless(DefaultLightOnCommandType, e, discovery.FieldOnCommandType, l.OnCommandType),
		discovery.Comparable(e, discovery.FieldOptimistic, l.Optimistic),

		discovery.Topic(e, discovery.FieldStateTopic, l.State.FullyQualifiedTopic(prefix)),
		discovery.RequiredTopic("command", e, discovery.FieldCommandTopic, l.Command.FullyQualifiedTopic(prefix)),
		discovery.Comparable(e, discovery.FieldPayloadOn, l.CustomPowerStateValues.On),
		discovery.Comparable(e, discovery.FieldPayloadOff, l.CustomPowerStateValues.Off),

		discovery.Topic(e, discovery.FieldColorModeStateTopic, l.ColorMode.FullyQualifiedTopic(prefix)),
		discovery.Slice(e, discovery.FieldSupportedColorModes, l.SupportedColorModes),

		discovery.StateAndCommand(
			"brightness", e,
			discovery.FieldBrightnessStateTopic, l.Brightness,
			discovery.FieldBrightnessCommandTopic, l.BrightnessCommand,
			prefix,
		),
		discovery.ComparableUnless(DefaultBrightnessScale, e, discovery.FieldBrightnessScale, l.BrightnessScale),

		discovery.StateAndCommand(
			"hue sat", e,
			discovery.FieldHueSatStateTopic, l.HueSat,
			discovery.FieldHueSatCommandTopic, l.HueSatCommand,
			prefix,
		),
	)
}
