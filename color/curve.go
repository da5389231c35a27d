package color

import "math"

// MaxChannel is the largest level a single 8-bit channel can be driven to.
const MaxChannel = 255

// Curve maps a host brightness percentage onto the level of a single channel and back. Controllers wired with only
// one channel (single-channel mode) use it in place of the HSV value.
type Curve interface {
	// Channel returns the channel level [0,MaxChannel] for a brightness percentage [0,100].
	Channel(brightness float64) int
	// Brightness returns the brightness percentage for a channel level reported by the device.
	Brightness(channel int) int
}

// Blend is a linear-then-quadratic Curve: channel = b + K*b². Dim settings are dominated by the linear term so every
// brightness step still moves the channel by at least one level, and the quadratic term takes over towards full
// brightness where the eye is less sensitive to change.
//
// Because the slope never drops below one level per percent, Brightness(Channel(b)) is within 1 of b for every
// integer b in [0,100].
type Blend struct {
	// K is the quadratic coefficient. K must be chosen so Channel(100) == MaxChannel.
	K float64
}

// Perceptual is the Curve used by single-channel accessories unless configured otherwise.
var Perceptual Curve = Blend{K: (MaxChannel - 100) / 10000.0}

func (c Blend) Channel(brightness float64) int {
	b := math.Max(0, math.Min(100, brightness))
	return int(math.Round(b + c.K*b*b))
}

func (c Blend) Brightness(channel int) int {
	ch := math.Max(0, math.Min(MaxChannel, float64(channel)))
	if c.K == 0 {
		return int(math.Round(ch))
	}

	return int(math.Round((math.Sqrt(1+4*c.K*ch) - 1) / (2 * c.K)))
}
