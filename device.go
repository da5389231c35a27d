package magichome

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlowe/magichome/discovery"
	"github.com/nlowe/magichome/mqtt"
)

// ErrInvalidDevice is returned by Device.Valid and Device.Configure for a device Home Assistant cannot identify.
var ErrInvalidDevice = errors.New("device must have at least one identifying value in 'identifiers' and/or 'connections'")

// DeviceConnection maps a Device to the outside world, e.g. DeviceConnection{Kind: "ip", Value: "10.0.0.2"}. It
// implements fmt.Stringer and slog.LogValuer.
type DeviceConnection struct {
	Kind  string
	Value string
}

func (d DeviceConnection) String() string {
	return fmt.Sprintf("[%q,%q]", d.Kind, d.Value)
}

func (d DeviceConnection) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", d.Kind),
		slog.String("value", d.Value),
	)
}

func (d DeviceConnection) MarshalJSONTo(e *jsontext.Encoder) error {
	return errors.Join(
		e.WriteToken(jsontext.BeginArray),
		e.WriteToken(jsontext.String(d.Kind)),
		e.WriteToken(jsontext.String(d.Value)),
		e.WriteToken(jsontext.EndArray),
	)
}

// Device is a Home Assistant device: the physical controller that a set of Components belong to. The relationship
// only exists in the discovery payload written by Configure.
//
// See https://www.home-assistant.io/integrations/mqtt/#device-discovery-payload
type Device struct {
	// The ID used in the discovery topic. Derived from Identifiers and Name if empty.
	DiscoveryID string `json:"-"`

	Name         string `json:"name,omitempty"`
	Serial       string `json:"sn,omitempty"`
	Manufacturer string `json:"mf,omitempty"`
	Model        string `json:"mdl,omitempty"`

	// Connections of the device to the outside world, e.g. its IP address.
	Connections []DeviceConnection `json:"cns,omitempty"`

	// IDs that uniquely identify the device.
	Identifiers []string `json:"ids,omitempty"`

	// Suggest an area if the device isn't in one yet
	SuggestedArea string `json:"sa,omitempty"`

	// The application publishing the device. DefaultOrigin is used if nil.
	Origin *Origin `json:"-"`
}

// ID returns DiscoveryID if set. Otherwise it joins Identifiers and Name with discovery.IDSep, replacing characters
// that are not allowed in a topic.
func (d *Device) ID() string {
	if d.DiscoveryID != "" {
		return d.DiscoveryID
	}

	parts := make([]string, 0, len(d.Identifiers)+1)
	for _, ident := range d.Identifiers {
		parts = append(parts, discovery.IDSanitizer.Replace(ident))
	}

	if d.Name != "" {
		parts = append(parts, discovery.IDSanitizer.Replace(d.Name))
	}

	return strings.Join(parts, discovery.IDSep)
}

// Valid reports ErrInvalidDevice unless the device has at least one identifier or connection.
func (d *Device) Valid() error {
	if len(d.Identifiers) == 0 && len(d.Connections) == 0 {
		return ErrInvalidDevice
	}

	return nil
}

// Topic returns the retained topic the discovery payload is written to.
func (d *Device) Topic(discoveryPrefix string) string {
	return mqtt.JoinTopic(discoveryPrefix, "device", d.ID(), "config")
}

// Configure writes the discovery payload for this device and its components, keyed by component id.
func (d *Device) Configure(ctx context.Context, w mqtt.Writer, discoveryPrefix string, components map[string]json.MarshalerTo) error {
	if err := d.Valid(); err != nil {
		return err
	}

	var buf bytes.Buffer
	e := jsontext.NewEncoder(&buf)

	err := errors.Join(
		e.WriteToken(jsontext.BeginObject),

		discovery.RequiredField("device", e, discovery.FieldDevice, d),
		discovery.RequiredField("origin", e, discovery.FieldOrigin, cmp.Or(d.Origin, DefaultOrigin())),

		e.WriteToken(jsontext.String(discovery.FieldComponents)),
		e.WriteToken(jsontext.BeginObject),
		discovery.Inline(e, components),
		e.WriteToken(jsontext.EndObject),

		e.WriteToken(jsontext.EndObject),
	)
	if err != nil {
		return fmt.Errorf("configure %s: marshal discovery payload: %w", d.ID(), err)
	}

	return w.WriteTopic(ctx, d.Topic(discoveryPrefix), mqtt.WriteOptions{Retain: true}, bytes.TrimSpace(buf.Bytes()))
}
