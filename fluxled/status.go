package fluxled

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/nlowe/magichome/color"
)

// onMarker is printed by flux_led between the device header and the mode when the controller is powered on.
const onMarker = "] ON "

var colorPattern = regexp.MustCompile(`\((\d{1,3}), (\d{1,3}), (\d{1,3})\)`)

// Snapshot is the device state parsed from a status response. It implements slog.LogValuer.
type Snapshot struct {
	On    bool
	Color color.HSV

	// Valid is true if the response contained a color. When false, Color holds color.White.
	Valid bool
}

func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("on", s.On),
		slog.Any("color", s.Color),
		slog.Bool("valid", s.Valid),
	)
}

// DefaultSnapshot is reported when the device could not be queried or its response was not understood: off and
// white.
func DefaultSnapshot() Snapshot {
	return Snapshot{Color: color.White}
}

// ParseStatus extracts power and color from flux_led status output. Power is on iff the output contains "] ON ", and
// the color is the first "(r, g, b)" triple. Anything else leaves the corresponding field at its DefaultSnapshot
// value; a missing or garbled response is indistinguishable from a device that is off.
func ParseStatus(output string) Snapshot {
	s := DefaultSnapshot()
	s.On = strings.Contains(output, onMarker)

	m := colorPattern.FindStringSubmatch(output)
	if m == nil {
		return s
	}

	// The pattern limits each group to three digits, so Atoi cannot fail.
	r, _ := strconv.Atoi(m[1])
	g, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])

	s.Color = color.RGB{R: r, G: g, B: b}.HSV()
	s.Valid = true
	return s
}
