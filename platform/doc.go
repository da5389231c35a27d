// Package platform implements the Home Assistant MQTT platforms magichome publishes. Each one satisfies
// magichome.Platform, and PlatformName returns the Home Assistant platform name (Light returns "light").
//
// Fields Home Assistant requires are tagged `magichome:"required"` and checked when marshaling for discovery.
package platform
