package magichome

import "net/url"

// Origin describes the application publishing devices to Home Assistant. Home Assistant logs it when a device is
// discovered and requires it for device-based discovery.
type Origin struct {
	Name            string   `json:"name"`
	SoftwareVersion string   `json:"sw,omitempty"`
	SupportURL      *url.URL `json:"url,omitempty"`
}

// Version is reported as the SoftwareVersion of DefaultOrigin. Release builds set it with -ldflags.
var Version = "dev"

var supportURL, _ = url.Parse("https://github.com/nlowe/magichome")

// DefaultOrigin returns the Origin used by devices that do not set one.
func DefaultOrigin() *Origin {
	return &Origin{
		Name:            "magichome",
		SoftwareVersion: Version,
		SupportURL:      supportURL,
	}
}
