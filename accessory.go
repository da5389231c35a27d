package magichome

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/nlowe/magichome/color"
	"github.com/nlowe/magichome/config"
	"github.com/nlowe/magichome/fluxled"
	"github.com/nlowe/magichome/log"
)

// Diagnostics is notified of device failures that Accessory deliberately hides from the host. Setters always succeed
// and getters fall back to DefaultSnapshot values, so this is the only place those failures are visible.
type Diagnostics interface {
	CommandFailed(cmd fluxled.Command, err error)
}

// The DiagnosticsFunc type is an adapter to allow the use of ordinary functions as Diagnostics.
type DiagnosticsFunc func(cmd fluxled.Command, err error)

func (f DiagnosticsFunc) CommandFailed(cmd fluxled.Command, err error) {
	f(cmd, err)
}

// Information describes the accessory to the host. It implements slog.LogValuer.
type Information struct {
	Manufacturer string
	Model        string
	Serial       string
}

func (i Information) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("manufacturer", i.Manufacturer),
		slog.String("model", i.Model),
		slog.String("serial", i.Serial),
	)
}

// DefaultInformation is reported for every MagicHome controller; the controllers do not expose anything more specific.
var DefaultInformation = Information{
	Manufacturer: "MagicHome",
	Model:        "LED-controller",
	Serial:       "123456789",
}

// Accessory exposes one MagicHome controller as a lightbulb with power, brightness, hue and saturation properties. It
// keeps the color it believes the device is showing and turns every change into a single flux_led command.
//
// Accessory never reports device failures to its caller. Setters return once the command has been handed to the
// Commander, whatever its outcome, and getters report DefaultSnapshot values when the device cannot be read. Failures
// are logged and passed to Diagnostics.
//
// Overlapping setters each render a command from a consistent color, but the commands race to the device: the last
// command to arrive wins, not necessarily the last call.
type Accessory struct {
	// Name is the display name of the accessory.
	Name string

	// Layout is the channel layout passed to flux_led with color commands (e.g. "RGBW").
	Layout string

	// PureWhite routes colors without hue or saturation through the dedicated white channel.
	PureWhite bool

	// SingleChannel treats the controller as having one intensity channel. Brightness is mapped through Curve to a
	// neutral gray and hue and saturation are not exposed.
	SingleChannel bool

	// Curve maps brightness to a channel level in SingleChannel mode. color.Perceptual is used if nil.
	Curve color.Curve

	// Diagnostics receives failures that are otherwise swallowed. May be nil.
	Diagnostics Diagnostics

	commander fluxled.Commander

	mu    sync.Mutex
	color color.HSV

	log *slog.Logger
}

// NewAccessory constructs an Accessory for the provided light that sends commands with commander. The believed color
// starts as color.White until the first Refresh.
func NewAccessory(light config.Light, commander fluxled.Commander) *Accessory {
	return &Accessory{
		Name:          light.Name,
		Layout:        light.Setup,
		PureWhite:     light.PureWhite,
		SingleChannel: light.SingleChannel,
		Curve:         color.Perceptual,

		commander: commander,
		color:     color.White,

		log: log.ForComponent("accessory").With(log.Light(light.ID)),
	}
}

// Info returns the accessory information reported to the host.
func (a *Accessory) Info() Information {
	return DefaultInformation
}

// Identify is called when the host asks the accessory to identify itself. MagicHome controllers have no way to do
// that, so this only logs.
func (a *Accessory) Identify(context.Context) {
	a.logger().Info("Identify requested")
}

// Color returns the color the accessory currently believes the device is showing, without querying it.
func (a *Accessory) Color() color.HSV {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.color
}

// Command renders the command that would put the device into the believed color.
func (a *Accessory) Command() fluxled.Command {
	return a.render(a.Color())
}

// Refresh queries the device and replaces the believed color with what it reports. If the device cannot be queried
// or its response holds no color, the color resets to color.White and the device is reported off.
func (a *Accessory) Refresh(ctx context.Context) fluxled.Snapshot {
	cmd := fluxled.Status()

	snapshot := fluxled.DefaultSnapshot()
	out, err := a.commander.SendCommand(ctx, cmd)
	if err != nil {
		a.failed(cmd, err)
	} else {
		snapshot = fluxled.ParseStatus(out)
	}

	a.mu.Lock()
	a.color = snapshot.Color
	a.mu.Unlock()

	a.logger().With(slog.Any("snapshot", snapshot)).Debug("Refreshed state from device")
	return snapshot
}

// Power queries the device and reports whether it is on.
func (a *Accessory) Power(ctx context.Context) bool {
	return a.Refresh(ctx).On
}

// Hue queries the device and reports its hue in degrees.
func (a *Accessory) Hue(ctx context.Context) float64 {
	return a.Refresh(ctx).Color.Hue()
}

// Saturation queries the device and reports its saturation percentage.
func (a *Accessory) Saturation(ctx context.Context) float64 {
	return a.Refresh(ctx).Color.Saturation()
}

// Brightness queries the device and reports its brightness percentage. In SingleChannel mode this is the inverse of
// Curve applied to the red channel.
func (a *Accessory) Brightness(ctx context.Context) float64 {
	return a.brightnessOf(a.Refresh(ctx).Color)
}

// brightnessOf returns the brightness percentage the accessory would report for c.
func (a *Accessory) brightnessOf(c color.HSV) float64 {
	if a.SingleChannel {
		return float64(a.curve().Brightness(c.RGB().R))
	}

	return c.Value()
}

// SetPower switches the device on or off. The believed color is not changed.
func (a *Accessory) SetPower(ctx context.Context, on bool) {
	a.logger().With(slog.Bool("on", on)).Info("Set power")
	a.dispatch(ctx, fluxled.Power(on))
}

// SetHue replaces the hue and sends the resulting color to the device.
func (a *Accessory) SetHue(ctx context.Context, hue float64) {
	a.update(ctx, func(c color.HSV) color.HSV {
		return c.WithHue(hue)
	})
}

// SetSaturation replaces the saturation and sends the resulting color to the device.
func (a *Accessory) SetSaturation(ctx context.Context, saturation float64) {
	a.update(ctx, func(c color.HSV) color.HSV {
		return c.WithSaturation(saturation)
	})
}

// SetBrightness replaces the brightness and sends the resulting color to the device. In SingleChannel mode the
// brightness is mapped through Curve and the color becomes a neutral gray of that level, discarding hue and
// saturation.
func (a *Accessory) SetBrightness(ctx context.Context, brightness float64) {
	a.logger().With(slog.Float64("brightness", brightness)).Info("Set brightness")

	a.update(ctx, func(c color.HSV) color.HSV {
		if a.SingleChannel {
			return color.Gray(a.curve().Channel(brightness)).HSV()
		}

		return c.WithValue(brightness)
	})
}

func (a *Accessory) update(ctx context.Context, change func(color.HSV) color.HSV) {
	a.mu.Lock()
	a.color = change(a.color)
	c := a.color
	a.mu.Unlock()

	cmd := a.render(c)
	a.logger().With(slog.Any("color", c), slog.Any("command", cmd)).Info("Set color")
	a.dispatch(ctx, cmd)
}

func (a *Accessory) render(c color.HSV) fluxled.Command {
	if a.PureWhite && c.IsPureWhite() {
		return fluxled.WarmWhite(int(math.Round(c.Value())))
	}

	return fluxled.Color(a.Layout, c.RGB())
}

func (a *Accessory) dispatch(ctx context.Context, cmd fluxled.Command) {
	if _, err := a.commander.SendCommand(ctx, cmd); err != nil {
		a.failed(cmd, err)
	}
}

func (a *Accessory) failed(cmd fluxled.Command, err error) {
	a.logger().With(slog.Any("command", cmd), log.Error(err)).Warn("Device command failed")

	if a.Diagnostics != nil {
		a.Diagnostics.CommandFailed(cmd, err)
	}
}

func (a *Accessory) curve() color.Curve {
	if a.Curve == nil {
		return color.Perceptual
	}

	return a.Curve
}

func (a *Accessory) logger() *slog.Logger {
	if a.log == nil {
		return log.ForComponent("accessory")
	}

	return a.log
}
