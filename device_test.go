package magichome

import (
	"context"
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/magichome/hass"
	"github.com/nlowe/magichome/mqtt"
	"github.com/nlowe/magichome/platform"
)

func TestDevice_ID(t *testing.T) {
	for _, tt := range []struct {
		name   string
		device Device
		want   string
	}{
		{name: "Discovery ID", device: Device{DiscoveryID: "porch", Identifiers: []string{"magichome:10.0.0.2"}}, want: "porch"},
		{name: "Identifiers", device: Device{Identifiers: []string{"magichome:10.0.0.2"}}, want: "magichome__10__0__0__2"},
		{name: "Identifiers And Name", device: Device{Identifiers: []string{"a", "b"}, Name: "Back Porch"}, want: "a__b__Back__Porch"},
		{name: "Topic Characters", device: Device{Name: "a/b#c+d"}, want: "a__b__c__d"},
		{name: "Empty"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.device.ID())
		})
	}
}

func TestDevice_Configure(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		d := &Device{Name: "Nameless"}
		require.ErrorIs(t, d.Valid(), ErrInvalidDevice)
		require.ErrorIs(t, d.Configure(context.Background(), newFakeBroker(), "homeassistant", nil), ErrInvalidDevice)
	})

	t.Run("Connections Only", func(t *testing.T) {
		d := &Device{Connections: []DeviceConnection{{Kind: "ip", Value: "10.0.0.2"}}}
		require.NoError(t, d.Valid())
		assert.Equal(t, `["ip","10.0.0.2"]`, d.Connections[0].String())
	})

	t.Run("Custom Origin", func(t *testing.T) {
		broker := newFakeBroker()
		d := &Device{
			DiscoveryID: "porch",
			Identifiers: []string{"magichome:10.0.0.2"},
			Origin:      &Origin{Name: "tests"},
		}

		require.NoError(t, d.Configure(context.Background(), broker, "ha", nil))

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(broker.get("ha/device/porch/config")), &payload))
		assert.Equal(t, map[string]any{"name": "tests"}, payload["o"])
		assert.Equal(t, map[string]any{}, payload["cmps"])
	})

	t.Run("Component Error", func(t *testing.T) {
		d := &Device{DiscoveryID: "porch", Identifiers: []string{"magichome:10.0.0.2"}}
		c := &Component[*platform.Light]{
			Platform:    &platform.Light{Command: mqtt.NewRemoteValue("command", hass.PowerStateUnmarshaler)},
			TopicPrefix: "magichome/porch",
			UniqueID:    "porch",
		}

		broker := newFakeBroker()
		err := d.Configure(context.Background(), broker, "ha", map[string]json.MarshalerTo{"porch": c})
		require.Error(t, err, "availability is required")
		assert.Empty(t, broker.get("ha/device/porch/config"), "nothing should be published")
	})
}

func TestDefaultOrigin(t *testing.T) {
	o := DefaultOrigin()

	assert.Equal(t, "magichome", o.Name)
	assert.Equal(t, Version, o.SoftwareVersion)
	assert.Equal(t, "https://github.com/nlowe/magichome", o.SupportURL.String())
}
