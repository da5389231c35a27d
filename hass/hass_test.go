package hass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerState(t *testing.T) {
	assert.Equal(t, PowerStateOn, PowerStateFor(true))
	assert.Equal(t, PowerStateOff, PowerStateFor(false))
	assert.True(t, PowerStateOn.On())
	assert.False(t, PowerStateUnknown.On())

	for _, tt := range []struct {
		in      string
		want    PowerState
		wantErr bool
	}{
		{in: "ON", want: PowerStateOn},
		{in: "off", want: PowerStateOff},
		{in: " On\n", want: PowerStateOn},
		{in: "toggle", want: PowerStateUnknown, wantErr: true},
		{in: "", want: PowerStateUnknown, wantErr: true},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PowerStateUnmarshaler([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tt.want, got)
		})
	}
}
