package discovery

import (
	"github.com/nlowe/magichome/hass"
	"github.com/nlowe/magichome/mqtt"
)

const (
	// DefaultPrefix is the topic prefix Home Assistant watches for discovery payloads.
	DefaultPrefix = "homeassistant"
	// StatusTopic is where Home Assistant publishes its own hass.Availability, relative to the discovery prefix.
	StatusTopic = "status"
)

// HomeAssistantAvailability returns a mqtt.RemoteValue tracking Home Assistant's own availability. Home Assistant
// publishes hass.Available when it starts, after which discovery payloads and state must be sent again.
//
// See https://www.home-assistant.io/integrations/mqtt/#birth-and-last-will-messages.
func HomeAssistantAvailability(discoveryPrefix string) *mqtt.RemoteValue[hass.Availability] {
	return mqtt.NewRemoteValue(mqtt.JoinTopic(discoveryPrefix, StatusTopic), hass.AvailabilityUnmarshaler)
}
