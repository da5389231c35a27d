package magichome

import (
	"context"
	"encoding/json/jsontext"
	"errors"
	"strings"

	"github.com/nlowe/magichome/discovery"
	"github.com/nlowe/magichome/hass"
	"github.com/nlowe/magichome/mqtt"
)

// ErrComponentAlreadySubscribed is returned by Component.Subscribe when it is already subscribed.
var ErrComponentAlreadySubscribed = errors.New("component already subscribed")

// Component is one Home Assistant entity of a Device. Every topic of its Platform lives under TopicPrefix. It
// implements json.MarshalerTo by encoding itself for the device discovery payload.
type Component[TPlatform Platform] struct {
	Platform    TPlatform
	TopicPrefix string

	// The name of the entity. Leave empty to use only the device name.
	Name string

	// The icon to use in the frontend, e.g. "mdi:led-strip-variant".
	Icon string

	// Whether the entity is available
	Availability *mqtt.Value[hass.Availability] `magichome:"required"`
	// Custom payloads for Availability
	CustomAvailabilityValues hass.CustomAvailability

	// Suggested entity id, e.g. light.porch. Only used the first time Home Assistant sees UniqueID.
	DefaultEntityID string

	// An ID that uniquely identifies this entity across Home Assistant.
	UniqueID string `magichome:"required"`

	// Options Home Assistant uses when publishing commands to this entity.
	WriteOptions mqtt.WriteOptions

	subscribedTopics []string
}

// Subscribe subscribes to every command topic of the platform and routes incoming payloads to it.
func (c *Component[TPlatform]) Subscribe(ctx context.Context, s mqtt.Subscriber) error {
	if len(c.subscribedTopics) != 0 {
		return ErrComponentAlreadySubscribed
	}

	subscriptions := c.Platform.Subscriptions(c.TopicPrefix)
	c.subscribedTopics = make([]string, len(subscriptions))
	for i, subscription := range subscriptions {
		c.subscribedTopics[i] = subscription.Topic
	}

	return s.Subscribe(ctx, mqtt.HandlerFunc(func(w mqtt.Writer, topic string, payload []byte) {
		rest, ok := strings.CutPrefix(topic, mqtt.TrimTopic(c.TopicPrefix))
		if !ok {
			return
		}

		c.Platform.ServeMQTT(w, mqtt.TrimTopic(rest), payload)
	}), subscriptions...)
}

// Unsubscribe removes the subscriptions made by Subscribe.
func (c *Component[TPlatform]) Unsubscribe(ctx context.Context, s mqtt.Subscriber) error {
	if len(c.subscribedTopics) == 0 {
		return nil
	}

	topics := c.subscribedTopics
	c.subscribedTopics = nil

	return s.Unsubscribe(ctx, topics...)
}

func (c *Component[TPlatform]) MarshalJSONTo(e *jsontext.Encoder) error {
	// A null name tells Home Assistant to use the device name alone.
	nameToken := jsontext.Null
	if c.Name != "" {
		nameToken = jsontext.String(c.Name)
	}

	return errors.Join(
		e.WriteToken(jsontext.BeginObject),

		discovery.RequiredComparable("platform", e, discovery.FieldPlatform, c.Platform.PlatformName()),

		e.WriteToken(jsontext.String(discovery.FieldName)),
		e.WriteToken(nameToken),

		discovery.Comparable(e, discovery.FieldIcon, c.Icon),

		discovery.RequiredTopic("availability", e, discovery.FieldAvailabilityTopic, c.Availability.FullyQualifiedTopic(c.TopicPrefix)),
		discovery.Comparable(e, discovery.FieldPayloadAvailable, c.CustomAvailabilityValues.Available),
		discovery.Comparable(e, discovery.FieldPayloadNotAvailable, c.CustomAvailabilityValues.Unavailable),

		discovery.Comparable(e, discovery.FieldDefaultEntityID, c.DefaultEntityID),
		discovery.RequiredComparable("unique id", e, discovery.FieldUniqueID, c.UniqueID),
		discovery.Comparable(e, discovery.FieldQoS, c.WriteOptions.QoS),
		discovery.Comparable(e, discovery.FieldRetain, c.WriteOptions.Retain),

		c.Platform.MarshalDiscoveryTo(e, c.TopicPrefix),

		e.WriteToken(jsontext.EndObject),
	)
}
