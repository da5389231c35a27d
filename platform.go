package magichome

import (
	"encoding/json/jsontext"

	"github.com/nlowe/magichome/mqtt"
)

// Platform is the interface implemented by Home Assistant MQTT entity types, such as platform.Light.
type Platform interface {
	mqtt.Handler

	// MarshalDiscoveryTo writes the platform's discovery fields to e, qualifying every topic with prefix.
	MarshalDiscoveryTo(e *jsontext.Encoder, prefix string) error

	// PlatformName returns the Home Assistant platform, e.g. "light".
	PlatformName() string

	// Subscriptions returns a subscription for every configured command topic under prefix.
	Subscriptions(prefix string) []mqtt.Subscription
}
