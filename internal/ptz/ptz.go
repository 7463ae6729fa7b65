// Package ptz centers and tracks a pan/tilt head over GPIO, built on
// periph.io/x/periph's host/gpio stack, following google-periph's
// gpio-write/main.go init-then-gpioreg pattern.
package ptz

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// Pins names the four direction-drive GPIO lines of a simple H-bridge pan
// tilt head. Leaving a name empty disables that direction.
type Pins struct {
	PanLeft  string
	PanRight string
	TiltUp   string
	TiltDown string
}

// Controller drives a pan/tilt head, falling back to a no-op when no pins
// are configured (the common case: most cameras have no PTZ hardware).
type Controller struct {
	panLeft, panRight gpio.PinIO
	tiltUp, tiltDown  gpio.PinIO

	pulseWidth time.Duration
}

// New initializes the periph host and resolves the configured pins. It
// returns a Controller that is a safe no-op if pins is the zero value.
func New(pins Pins, pulseWidth time.Duration) (*Controller, error) {
	if pulseWidth <= 0 {
		pulseWidth = 50 * time.Millisecond
	}
	c := &Controller{pulseWidth: pulseWidth}

	if pins == (Pins{}) {
		return c, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ptz: host init: %w", err)
	}

	resolve := func(name string) (gpio.PinIO, error) {
		if name == "" {
			return nil, nil
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("ptz: unknown GPIO pin %q", name)
		}
		return p, nil
	}

	var err error
	if c.panLeft, err = resolve(pins.PanLeft); err != nil {
		return nil, err
	}
	if c.panRight, err = resolve(pins.PanRight); err != nil {
		return nil, err
	}
	if c.tiltUp, err = resolve(pins.TiltUp); err != nil {
		return nil, err
	}
	if c.tiltDown, err = resolve(pins.TiltDown); err != nil {
		return nil, err
	}
	return c, nil
}

// Center drives every configured direction pin low, stopping any motion of
// the head, called on event-end. It does not move the head back to a rest
// position.
func (c *Controller) Center() error {
	for _, p := range []gpio.PinIO{c.panLeft, c.panRight, c.tiltUp, c.tiltDown} {
		if p == nil {
			continue
		}
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("ptz: center: %w", err)
		}
	}
	return nil
}

// Track pulses the appropriate direction pins toward the located motion
// centre, biased by dx/dy relative to frame centre.
func (c *Controller) Track(dx, dy int) error {
	if err := c.pulse(dx < 0, c.panLeft); err != nil {
		return err
	}
	if err := c.pulse(dx > 0, c.panRight); err != nil {
		return err
	}
	if err := c.pulse(dy < 0, c.tiltUp); err != nil {
		return err
	}
	if err := c.pulse(dy > 0, c.tiltDown); err != nil {
		return err
	}
	return nil
}

func (c *Controller) pulse(active bool, p gpio.PinIO) error {
	if !active || p == nil {
		return nil
	}
	if err := p.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(c.pulseWidth)
	return p.Out(gpio.Low)
}
