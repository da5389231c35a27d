// Package fluxled talks to MagicHome LED controllers through the flux_led command line tool. The tool is the actual
// device driver: this package only knows the argument grammar it accepts and the shape of its status output.
package fluxled

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/nlowe/magichome/color"
)

// Command is the argument list passed to flux_led after the device address. It implements fmt.Stringer and
// slog.LogValuer.
type Command []string

func (c Command) String() string {
	return strings.Join(c, " ")
}

func (c Command) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// Status queries the current power state and color.
func Status() Command {
	return Command{"-i"}
}

// Power switches the controller on or off.
func Power(on bool) Command {
	if on {
		return Command{"--on"}
	}

	return Command{"--off"}
}

// Color sets the RGB channels for a controller with the given channel layout (e.g. "RGBW").
func Color(layout string, rgb color.RGB) Command {
	return Command{"-x", layout, "-c", rgb.String()}
}

// WarmWhite drives the dedicated white channel at the given brightness percentage.
func WarmWhite(brightness int) Command {
	return Command{"-w", strconv.Itoa(brightness)}
}
