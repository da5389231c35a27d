package hass

import "github.com/nlowe/magichome/mqtt"

// ColorMode tells Home Assistant which controls a light supports and which one it is currently using.
type ColorMode string

const (
	ColorModeOnOff      ColorMode = "onoff"
	ColorModeBrightness ColorMode = "brightness"
	ColorModeHueSat     ColorMode = "hs"
	ColorModeRGB        ColorMode = "rgb"
	ColorModeRGBW       ColorMode = "rgbw"
	ColorModeWhite      ColorMode = "white"
)

var (
	ColorModeMarshaler mqtt.ValueMarshaler[ColorMode] = func(v ColorMode) ([]byte, error) {
		return mqtt.StringMarshaler(string(v))
	}
	ColorModeUnmarshaler mqtt.ValueUnmarshaler[ColorMode] = func(bytes []byte) (ColorMode, error) {
		v, err := mqtt.StringUnmarshaler(bytes)
		return ColorMode(v), err
	}
)
