package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nlowe/magichome/config"
	"github.com/nlowe/magichome/discovery"
	"github.com/nlowe/magichome/hass"
	mhlog "github.com/nlowe/magichome/log"
	"github.com/nlowe/magichome/mqtt"
	adapter "github.com/nlowe/magichome/mqtt/adapter/autopaho"
)

// sessionExpiry is how long, in seconds, the broker keeps the session (and queued commands) after a disconnect.
const sessionExpiry = 60

func dial(ctx context.Context, cfg config.MQTTConfig) (*adapter.Conn, error) {
	log := mhlog.ForComponent("mqtt")

	brokerURL, err := cfg.BrokerURL()
	if err != nil {
		return nil, err
	}

	mqttConfig := autopaho.ClientConfig{
		ServerUrls:            []*url.URL{brokerURL},
		KeepAlive:             uint16(cfg.KeepAlive.Duration().Seconds()),
		SessionExpiryInterval: sessionExpiry,

		ConnectUsername: cfg.Username,
		ConnectPassword: []byte(cfg.Password),

		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			log.Info("mqtt connected")
		},
		OnConnectError: func(err error) {
			log.With(mhlog.Error(err)).Error("mqtt connection error")
		},

		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
			OnClientError: func(err error) {
				log.With(mhlog.Error(err)).Error("mqtt client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				log := log.With(slog.Int("reason", int(d.ReasonCode)))

				if d.Properties != nil {
					log = log.With(
						slog.Group(
							"properties",
							slog.String("reference", d.Properties.ServerReference),
							slog.String("reason", d.Properties.ReasonString),
						),
					)
				}

				log.Warn("Disconnected from server")
			},
		},
	}

	return adapter.Dial(ctx, mqttConfig)
}

// connect dials the broker and subscribes to Home Assistant's status topic.
func connect(ctx context.Context, cfg config.MQTTConfig) (*adapter.Conn, *mqtt.RemoteValue[hass.Availability], error) {
	conn, err := dial(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	hassAvailability := discovery.HomeAssistantAvailability(cfg.DiscoveryPrefix)
	if err = conn.Subscribe(ctx, hassAvailability, mqtt.Subscription{Topic: hassAvailability.FullyQualifiedTopic("")}); err != nil {
		return nil, nil, fmt.Errorf("subscribe to home assistant status: %w", err)
	}

	return conn, hassAvailability, nil
}
