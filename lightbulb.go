package magichome

import (
	"context"
	"encoding/json/v2"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/nlowe/magichome/color"
	"github.com/nlowe/magichome/config"
	"github.com/nlowe/magichome/hass"
	"github.com/nlowe/magichome/log"
	"github.com/nlowe/magichome/mqtt"
	"github.com/nlowe/magichome/platform"
)

// Topics of a Lightbulb, relative to <topic prefix>/<light id>.
const (
	TopicState             = "state"
	TopicCommand           = "command"
	TopicBrightness        = "brightness"
	TopicBrightnessCommand = "brightness/set"
	TopicHueSat            = "hs"
	TopicHueSatCommand     = "hs/set"
	TopicColorMode         = "color/mode"
	TopicAvailability      = "available"
)

// BrightnessScale is the brightness Home Assistant sends for 100%. Brightness is a percentage everywhere, so no
// conversion is needed.
const BrightnessScale = 100

// shutdownTimeout bounds publishing the offline availability after Run is cancelled.
const shutdownTimeout = 5 * time.Second

// Lightbulb exposes an Accessory to Home Assistant as an MQTT light. Commands from Home Assistant call the Accessory
// setters and state read from the device is published to the state topics.
type Lightbulb struct {
	Accessory *Accessory
	Component *Component[*platform.Light]
	Device    *Device

	w     mqtt.Writer
	light config.Light

	// Commands run in their own goroutines so a hung flux_led call never blocks the mqtt client.
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup

	log *slog.Logger
}

// NewLightbulb builds the Home Assistant light and device for accessory, publishing with w under topicPrefix. The hs
// topics are left out in single channel mode.
func NewLightbulb(accessory *Accessory, light config.Light, topicPrefix string, w mqtt.Writer) *Lightbulb {
	retained := mqtt.WriteOptions{Retain: true}

	l := &platform.Light{
		State:               mqtt.NewValueWithOptions(TopicState, hass.PowerStateMarshaler, retained),
		Command:             mqtt.NewRemoteValue(TopicCommand, hass.PowerStateUnmarshaler),
		ColorMode:           mqtt.NewValueWithOptions(TopicColorMode, hass.ColorModeMarshaler, retained),
		SupportedColorModes: []hass.ColorMode{hass.ColorModeHueSat},
		Brightness:          mqtt.NewValueWithOptions(TopicBrightness, mqtt.UintMarshaler, retained),
		BrightnessCommand:   mqtt.NewRemoteValue(TopicBrightnessCommand, mqtt.UintUnmarshaler),
		BrightnessScale:     BrightnessScale,
		HueSat:              mqtt.NewValueWithOptions(TopicHueSat, platform.HueSatMarshaler, retained),
		HueSatCommand:       mqtt.NewRemoteValue(TopicHueSatCommand, platform.HueSatUnmarshaler),
	}

	if accessory.SingleChannel {
		l.SupportedColorModes = []hass.ColorMode{hass.ColorModeBrightness}
		l.HueSat, l.HueSatCommand = nil, nil
	}

	info := accessory.Info()
	ctx, cancel := context.WithCancel(context.Background())

	return &Lightbulb{
		Accessory: accessory,
		Component: &Component[*platform.Light]{
			Platform:        l,
			TopicPrefix:     mqtt.JoinTopic(topicPrefix, light.ID),
			Icon:            "mdi:led-strip-variant",
			Availability:    mqtt.NewValueWithOptions(TopicAvailability, hass.AvailabilityMarshaler, retained),
			DefaultEntityID: "light." + light.ID,
			UniqueID:        light.ID,
		},
		Device: &Device{
			DiscoveryID:  light.ID,
			Name:         light.Name,
			Serial:       info.Serial,
			Manufacturer: info.Manufacturer,
			Model:        info.Model,
			Identifiers:  []string{"magichome:" + light.IP},
			Connections:  []DeviceConnection{{Kind: "ip", Value: light.IP}},
		},

		w:     w,
		light: light,

		ctx:    ctx,
		cancel: cancel,

		log: log.ForComponent("lightbulb").With(log.Light(light.ID)),
	}
}

// Discover publishes the device discovery payload.
func (b *Lightbulb) Discover(ctx context.Context, discoveryPrefix string) error {
	return b.Device.Configure(ctx, b.w, discoveryPrefix, map[string]json.MarshalerTo{
		b.light.ID: b.Component,
	})
}

// Subscribe registers the command watchers and subscribes to the command topics.
func (b *Lightbulb) Subscribe(ctx context.Context, s mqtt.Subscriber) error {
	l := b.Component.Platform

	l.Command.Watch(func(p hass.PowerState) {
		b.handle("power", func(ctx context.Context) error {
			b.Accessory.SetPower(ctx, p.On())
			return l.State.Write(ctx, b.w, b.Component.TopicPrefix, hass.PowerStateFor(p.On()))
		})
	})

	l.BrightnessCommand.Watch(func(v uint) {
		b.handle("brightness", func(ctx context.Context) error {
			b.Accessory.SetBrightness(ctx, float64(v))
			return b.publishColor(ctx, b.Accessory.Color())
		})
	})

	// Single channel lights have no hs topics.
	if l.HueSatCommand != nil {
		l.HueSatCommand.Watch(func(hs platform.HueSat) {
			b.handle("hs", func(ctx context.Context) error {
				b.Accessory.SetHue(ctx, hs.Hue)
				b.Accessory.SetSaturation(ctx, hs.Saturation)
				return b.publishColor(ctx, b.Accessory.Color())
			})
		})
	}

	return b.Component.Subscribe(ctx, s)
}

// Unsubscribe removes the subscriptions made by Subscribe.
func (b *Lightbulb) Unsubscribe(ctx context.Context, s mqtt.Subscriber) error {
	return b.Component.Unsubscribe(ctx, s)
}

func (b *Lightbulb) handle(property string, f func(context.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		b.log.With(slog.String("property", property)).Debug("Dropping command after shutdown")
		return
	}

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()

		if err := f(b.ctx); err != nil {
			b.log.With(slog.String("property", property), log.Error(err)).Warn("Failed to publish state")
		}
	}()
}

// Sync reads the device state and publishes it.
func (b *Lightbulb) Sync(ctx context.Context) error {
	snapshot := b.Accessory.Refresh(ctx)

	return errors.Join(
		b.Component.Platform.State.Write(ctx, b.w, b.Component.TopicPrefix, hass.PowerStateFor(snapshot.On)),
		b.publishColor(ctx, snapshot.Color),
	)
}

// Republish writes every published value again, e.g. after Home Assistant restarts. Values that were never written
// are skipped.
func (b *Lightbulb) Republish(ctx context.Context) error {
	l := b.Component.Platform
	prefix := b.Component.TopicPrefix

	var errs []error
	for _, err := range []error{
		b.Component.Availability.Republish(ctx, b.w, prefix),
		l.State.Republish(ctx, b.w, prefix),
		l.ColorMode.Republish(ctx, b.w, prefix),
		l.Brightness.Republish(ctx, b.w, prefix),
		l.HueSat.Republish(ctx, b.w, prefix),
	} {
		if err != nil && !errors.Is(err, mqtt.ErrNeverWritten) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (b *Lightbulb) publishColor(ctx context.Context, c color.HSV) error {
	l := b.Component.Platform
	prefix := b.Component.TopicPrefix

	mode := hass.ColorModeHueSat
	if b.Accessory.SingleChannel {
		mode = hass.ColorModeBrightness
	}

	return errors.Join(
		l.ColorMode.Write(ctx, b.w, prefix, mode),
		l.Brightness.Write(ctx, b.w, prefix, uint(math.Round(max(b.Accessory.brightnessOf(c), 0)))),
		l.HueSat.Write(ctx, b.w, prefix, platform.HueSat{Hue: c.Hue(), Saturation: c.Saturation()}),
	)
}

// SetAvailable publishes the light's availability.
func (b *Lightbulb) SetAvailable(ctx context.Context, available bool) error {
	v := hass.Unavailable
	if available {
		v = hass.Available
	}

	return b.Component.Availability.Write(ctx, b.w, b.Component.TopicPrefix, v)
}

// Run marks the light available, syncs it, and then syncs again every poll interval until ctx is cancelled. On the
// way out it cancels running commands, waits for them and marks the light unavailable. Publish failures are logged, not returned,
// since the connection recovers on its own.
func (b *Lightbulb) Run(ctx context.Context) error {
	if err := b.SetAvailable(ctx, true); err != nil {
		b.log.With(log.Error(err)).Warn("Failed to publish availability")
	}

	b.sync(ctx)

	var tick <-chan time.Time
	if poll := b.light.Poll(); poll > 0 {
		b.log.With(slog.Duration("interval", poll)).Debug("Polling device")

		t := time.NewTicker(poll)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			b.stop()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := b.SetAvailable(shutdownCtx, false); err != nil {
				b.log.With(log.Error(err)).Warn("Failed to publish availability")
			}

			return nil
		case <-tick:
			b.sync(ctx)
		}
	}
}

func (b *Lightbulb) stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	b.cancel()
	b.inflight.Wait()
}

func (b *Lightbulb) sync(ctx context.Context) {
	if err := b.Sync(ctx); err != nil {
		b.log.With(log.Error(err)).Warn("Failed to publish state")
	}
}
