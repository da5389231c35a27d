package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(`
lights:
  - ip: 192.168.1.50
`))
		require.NoError(t, err)

		assert.Equal(t, DefaultBroker, cfg.MQTT.Broker)
		assert.True(t, strings.HasPrefix(cfg.MQTT.ClientID, "magichome-"), "client id should be generated")
		assert.Equal(t, DefaultKeepAlive, cfg.MQTT.KeepAlive.Duration())
		assert.Equal(t, DefaultTopicPrefix, cfg.MQTT.TopicPrefix)
		assert.Equal(t, DefaultDiscoverPrefix, cfg.MQTT.DiscoveryPrefix)
		assert.Equal(t, DefaultCommandPath, cfg.Command.Path)
		assert.Zero(t, cfg.Command.Timeout)
		assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
		assert.True(t, cfg.Log.UseColors())

		require.Len(t, cfg.Lights, 1)
		l := cfg.Lights[0]
		assert.Equal(t, "magichome_192_168_1_50", l.ID)
		assert.Equal(t, DefaultName, l.Name)
		assert.Equal(t, DefaultSetup, l.Setup)
		assert.Equal(t, DefaultPort, l.Port)
		assert.False(t, l.PureWhite)
		assert.False(t, l.SingleChannel)
		assert.Equal(t, DefaultPollInterval, l.Poll())
	})

	t.Run("Explicit", func(t *testing.T) {
		cfg, err := Parse([]byte(`
mqtt:
  broker: mqtt://broker:1884
  client_id: porch
  keep_alive: 45s
  topic_prefix: leds
  discovery_prefix: ha
command:
  path: /opt/flux_led.py
  timeout: 5s
log:
  level: debug
  colors: false
lights:
  - id: porch
    name: Porch
    setup: GRB
    ip: 10.0.0.2
    port: 1234
    purewhite: true
    poll_interval: 0s
  - name: Desk
    ip: 10.0.0.3
    singleChannel: true
`))
		require.NoError(t, err)

		assert.Equal(t, "mqtt://broker:1884", cfg.MQTT.Broker)
		assert.Equal(t, "porch", cfg.MQTT.ClientID)
		assert.Equal(t, 45*time.Second, cfg.MQTT.KeepAlive.Duration())
		assert.Equal(t, "leds", cfg.MQTT.TopicPrefix)
		assert.Equal(t, "ha", cfg.MQTT.DiscoveryPrefix)
		assert.Equal(t, "/opt/flux_led.py", cfg.Command.Path)
		assert.Equal(t, 5*time.Second, cfg.Command.Timeout.Duration())
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.False(t, cfg.Log.UseColors())

		require.Len(t, cfg.Lights, 2)
		assert.Equal(t, Light{
			ID:           "porch",
			Name:         "Porch",
			Setup:        "GRB",
			IP:           "10.0.0.2",
			Port:         1234,
			PureWhite:    true,
			PollInterval: cfg.Lights[0].PollInterval,
		}, cfg.Lights[0])
		assert.Zero(t, cfg.Lights[0].Poll(), "polling should be disabled")

		assert.Equal(t, "magichome_10_0_0_3", cfg.Lights[1].ID)
		assert.True(t, cfg.Lights[1].SingleChannel)
	})

	t.Run("Env Expansion", func(t *testing.T) {
		t.Setenv("MAGICHOME_TEST_IP", "10.1.2.3")

		cfg, err := Parse([]byte(`
mqtt:
  password: ${MAGICHOME_TEST_PASSWORD:hunter2}
lights:
  - ip: ${MAGICHOME_TEST_IP}
`))
		require.NoError(t, err)

		assert.Equal(t, "hunter2", cfg.MQTT.Password)
		assert.Equal(t, "10.1.2.3", cfg.Lights[0].IP)
	})

	t.Run("Invalid Duration", func(t *testing.T) {
		_, err := Parse([]byte(`
mqtt:
  keep_alive: forever
lights:
  - ip: 10.0.0.2
`))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("No Lights", func(t *testing.T) {
		_, err := Parse([]byte(`mqtt: {}`))
		require.ErrorIs(t, err, ErrNoLights)
	})

	t.Run("Missing IP", func(t *testing.T) {
		_, err := Parse([]byte(`
lights:
  - name: Nowhere
`))
		require.ErrorIs(t, err, ErrMissingIP)
	})

	t.Run("Duplicate ID", func(t *testing.T) {
		_, err := Parse([]byte(`
lights:
  - ip: 10.0.0.2
  - ip: 10.0.0.2
`))
		require.ErrorIs(t, err, ErrDuplicateID)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("MAGICHOME_TEST_DOTENV_IP=172.16.0.9\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MAGICHOME_TEST_DOTENV_IP") })

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("lights:\n  - ip: ${MAGICHOME_TEST_DOTENV_IP}\n"), 0o600))

	cfg, err := Load(cfgPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, "172.16.0.9", cfg.Lights[0].IP)

	t.Run("Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"), envPath)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Missing Env File", func(t *testing.T) {
		_, err := Load(cfgPath, filepath.Join(dir, "nope.env"))
		require.Error(t, err)
	})
}

func TestMQTTConfig_BrokerURL(t *testing.T) {
	u, err := MQTTConfig{Broker: "mqtt://broker:1883"}.BrokerURL()
	require.NoError(t, err)
	assert.Equal(t, "broker:1883", u.Host)

	_, err = MQTTConfig{Broker: "://nope"}.BrokerURL()
	require.Error(t, err)
}
