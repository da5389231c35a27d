// Command magichome-mqtt exposes MagicHome LED controllers to Home Assistant over MQTT. Every configured light is
// discovered as a Home Assistant device and driven with flux_led.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/nlowe/magichome"
	"github.com/nlowe/magichome/config"
	"github.com/nlowe/magichome/fluxled"
	"github.com/nlowe/magichome/hass"
	mhlog "github.com/nlowe/magichome/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	envFile := flag.String("env", "", "dotenv file to load before reading the configuration (default .env if present)")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		mhlog.ForComponent("main").With(mhlog.Error(err)).Error("Exiting")
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	if err = setupLogging(os.Stderr, cfg.Log); err != nil {
		return err
	}

	log := mhlog.ForComponent("main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, hassAvailability, err := connect(ctx, cfg.MQTT)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		log.Info("Disconnecting from mqtt")
		if err := conn.Disconnect(shutdownCtx); err != nil {
			log.With(mhlog.Error(err)).Error("Failed to disconnect from mqtt")
		}
	}()

	bulbs := make([]*magichome.Lightbulb, len(cfg.Lights))
	for i, light := range cfg.Lights {
		accessory := magichome.NewAccessory(light, fluxled.NewExec(cfg.Command.Path, light.IP, cfg.Command.Timeout.Duration()))
		bulbs[i] = magichome.NewLightbulb(accessory, light, cfg.MQTT.TopicPrefix, conn)

		if err = bulbs[i].Subscribe(ctx, conn); err != nil {
			return fmt.Errorf("subscribe %s: %w", light.ID, err)
		}
	}

	rediscover := func(ctx context.Context) error {
		log.Info("Sending discovery payloads")

		var errs []error
		for _, b := range bulbs {
			errs = append(errs, b.Discover(ctx, cfg.MQTT.DiscoveryPrefix), b.Republish(ctx))
		}

		return errors.Join(errs...)
	}

	hassAvailability.Watch(func(availability hass.Availability) {
		log.With(slog.Any("availability", availability)).Info("Home Assistant state changed")
		if availability != hass.Available {
			return
		}

		if err := rediscover(ctx); err != nil {
			log.With(mhlog.Error(err)).Error("Failed to rediscover lights")
		}
	})

	if err = rediscover(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range bulbs {
		g.Go(func() error {
			return b.Run(ctx)
		})
	}

	log.With(slog.Int("lights", len(bulbs))).Info("Running")
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-conn.Done():
			return errors.New("mqtt connection closed")
		}
	})

	err = g.Wait()
	log.Info("Goodbye!")
	return err
}

func setupLogging(w io.Writer, cfg config.LogConfig) error {
	level, err := mhlog.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	if cfg.JSON {
		mhlog.To(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
		return nil
	}

	mhlog.To(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !cfg.UseColors(),
	}))

	return nil
}
