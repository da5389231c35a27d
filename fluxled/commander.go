package fluxled

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/nlowe/magichome/log"
)

// DefaultPath is the flux_led executable used when none is configured. It is resolved using $PATH.
const DefaultPath = "flux_led.py"

// ErrNoAddress is the error returned by Exec.SendCommand when no device address is configured.
var ErrNoAddress = errors.New("no device address configured")

// Commander sends a single Command to a controller and returns whatever the device driver printed. Implementations
// must be safe for concurrent use; each call is an independent request.
type Commander interface {
	SendCommand(ctx context.Context, cmd Command) (string, error)
}

// CommanderFunc is an adapter to allow the use of ordinary functions as a Commander.
type CommanderFunc func(ctx context.Context, cmd Command) (string, error)

func (f CommanderFunc) SendCommand(ctx context.Context, cmd Command) (string, error) {
	return f(ctx, cmd)
}

// Exec is a Commander that runs `<Path> <Address> <cmd...>` as a subprocess for every command.
type Exec struct {
	// Path to the flux_led executable. DefaultPath is used if empty.
	Path string

	// Address of the controller on the local network.
	Address string

	// Timeout bounds each invocation. Zero means the invocation is only bounded by the provided context.
	Timeout time.Duration

	log *slog.Logger
}

// NewExec constructs an Exec Commander for the controller at address.
func NewExec(path, address string, timeout time.Duration) *Exec {
	if path == "" {
		path = DefaultPath
	}

	return &Exec{
		Path:    path,
		Address: address,
		Timeout: timeout,

		log: log.ForComponent("fluxled").With(slog.String("address", address)),
	}
}

var _ Commander = &Exec{}

func (e *Exec) SendCommand(ctx context.Context, cmd Command) (string, error) {
	if e.Address == "" {
		return "", ErrNoAddress
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, e.Path, append([]string{e.Address}, cmd...)...)
	c.Stdout = &stdout
	c.Stderr = &stderr

	e.logger().With(slog.Any("command", cmd)).Debug("Running flux_led")
	if err := c.Run(); err != nil {
		if stderr.Len() > 0 {
			return stdout.String(), fmt.Errorf("%s %s: %w: %s", e.Path, cmd, err, bytes.TrimSpace(stderr.Bytes()))
		}

		return stdout.String(), fmt.Errorf("%s %s: %w", e.Path, cmd, err)
	}

	return stdout.String(), nil
}

func (e *Exec) logger() *slog.Logger {
	if e.log == nil {
		return log.ForComponent("fluxled").With(slog.String("address", e.Address))
	}

	return e.log
}
