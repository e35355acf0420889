//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealController drives an actual chip through the Linux GPIO character device.
type RealController struct {
	name   string
	chip   *gpiocdev.Chip
	closed bool
}

// NewRealController opens the named chip. Both "gpiochip0" and
// "/dev/gpiochip0" are accepted.
func NewRealController(name string) (*RealController, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, &DeviceOpenError{Chip: name, Err: err}
	}
	return &RealController{name: name, chip: chip}, nil
}

// OpenReal is an OpenFunc backed by NewRealController.
func OpenReal(name string) (Controller, error) {
	c, err := NewRealController(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RequestOutput requests the line as an output, initially inactive.
func (c *RealController) RequestOutput(cfg LineConfig) (Line, error) {
	if c.closed {
		return nil, &LineRequestError{Chip: c.name, Offset: cfg.Offset, Err: gpiocdev.ErrClosed}
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(cfg.Consumer),
	}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	l, err := c.chip.RequestLine(cfg.Offset, opts...)
	if err != nil {
		return nil, &LineRequestError{Chip: c.name, Offset: cfg.Offset, Err: err}
	}
	return &RealLine{offset: cfg.Offset, line: l}, nil
}

// Close releases the chip.
func (c *RealController) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.chip.Close(); err != nil && !errors.Is(err, gpiocdev.ErrClosed) {
		return fmt.Errorf("close chip %s: %w", c.name, err)
	}
	return nil
}

// RealLine is a line requested from a RealController.
type RealLine struct {
	offset int
	line   *gpiocdev.Line
	closed bool
}

// SetValue drives the line to the logical level.
func (l *RealLine) SetValue(on bool) error {
	if l.closed {
		return &LineWriteError{Offset: l.offset, Err: gpiocdev.ErrClosed}
	}
	if err := l.line.SetValue(level(on)); err != nil {
		return &LineWriteError{Offset: l.offset, Err: err}
	}
	return nil
}

// Close releases the line. The line is left at its last driven value.
func (l *RealLine) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.line.Close(); err != nil && !errors.Is(err, gpiocdev.ErrClosed) {
		return fmt.Errorf("release line %d: %w", l.offset, err)
	}
	return nil
}
