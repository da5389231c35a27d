// Package discovery encodes Home Assistant device discovery payloads. Field names use the abbreviated forms Home
// Assistant accepts to keep retained discovery messages small.
//
// See https://www.home-assistant.io/integrations/mqtt/#supported-abbreviations-in-mqtt-discovery-messages. Only the
// abbreviations this module publishes have constants.
package discovery
