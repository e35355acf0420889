//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealController is not available on non-Linux platforms.
type RealController struct{}

// NewRealController returns an error on non-Linux platforms.
func NewRealController(name string) (*RealController, error) {
	return nil, &DeviceOpenError{Chip: name, Err: errUnsupported}
}

// OpenReal always fails on non-Linux platforms.
func OpenReal(name string) (Controller, error) {
	return nil, &DeviceOpenError{Chip: name, Err: errUnsupported}
}

// RequestOutput is not implemented on non-Linux platforms.
func (c *RealController) RequestOutput(cfg LineConfig) (Line, error) {
	return nil, &LineRequestError{Offset: cfg.Offset, Err: errUnsupported}
}

// Close is not implemented on non-Linux platforms.
func (c *RealController) Close() error {
	return nil
}
