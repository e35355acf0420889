// Package gpio provides single-line GPIO output control with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Defaults used when the caller does not override them.
const (
	DefaultChip     = "gpiochip0"
	DefaultConsumer = "relay-control"
)

// Controller is an open GPIO chip.
type Controller interface {
	// RequestOutput requests exclusive ownership of one line as an output.
	// The line starts at logical low.
	RequestOutput(cfg LineConfig) (Line, error)

	// Close releases the chip. Calling Close more than once is a no-op.
	Close() error
}

// Line is a requested output line.
type Line interface {
	// SetValue drives the line to the logical level (true = active).
	SetValue(on bool) error

	// Close releases the line. Calling Close more than once is a no-op.
	Close() error
}

// OpenFunc opens the chip identified by name ("gpiochip0") or device path
// ("/dev/gpiochip0").
type OpenFunc func(chip string) (Controller, error)

// LineConfig describes the line to request.
type LineConfig struct {
	Offset    int
	Consumer  string
	ActiveLow bool // logical high drives the pin low
}

// DeviceOpenError reports a chip that could not be opened.
type DeviceOpenError struct {
	Chip string
	Err  error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("open gpio chip %s: %v", e.Chip, e.Err)
}

func (e *DeviceOpenError) Unwrap() error { return e.Err }

// LineRequestError reports a line that could not be acquired, either because
// the offset is out of range or the line is held by another consumer.
type LineRequestError struct {
	Chip   string
	Offset int
	Err    error
}

func (e *LineRequestError) Error() string {
	return fmt.Sprintf("request line %d on %s: %v", e.Offset, e.Chip, e.Err)
}

func (e *LineRequestError) Unwrap() error { return e.Err }

// LineWriteError reports a failed write to an acquired line.
type LineWriteError struct {
	Offset int
	Err    error
}

func (e *LineWriteError) Error() string {
	return fmt.Sprintf("set line %d: %v", e.Offset, e.Err)
}

func (e *LineWriteError) Unwrap() error { return e.Err }

// level converts a logical state to the integer value used by the uAPI.
func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
