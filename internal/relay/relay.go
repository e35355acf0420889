// Package relay switches a relay wired to a single GPIO output line.
package relay

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sweeney/relay-control/internal/gpio"
)

// Action tokens accepted on the command line.
const (
	ActionOn  = "on"
	ActionOff = "off"
)

// ErrInvalidAction is returned for any action other than "on" or "off".
var ErrInvalidAction = errors.New("invalid action")

// ParseAction maps "on" to true and "off" to false. Matching is exact and
// case-sensitive.
func ParseAction(s string) (bool, error) {
	switch s {
	case ActionOn:
		return true, nil
	case ActionOff:
		return false, nil
	}
	return false, fmt.Errorf("%w %q", ErrInvalidAction, s)
}

// Request describes one switching operation.
type Request struct {
	Chip      string
	Offset    int
	Consumer  string
	ActiveLow bool
	Action    string
}

// Switcher runs the open, acquire, write, release sequence.
type Switcher struct {
	Open gpio.OpenFunc

	// Log receives teardown failures. Nil discards them.
	Log *log.Logger
}

// Switch drives the requested line to the level named by the action and
// returns that level. The action is checked after the line is acquired, so
// an invalid action still opens the chip and claims the line before both
// are released.
//
// Whatever was acquired is released on every return path, line first.
func (s *Switcher) Switch(req Request) (bool, error) {
	ctrl, err := s.Open(req.Chip)
	if err != nil {
		return false, err
	}
	defer s.teardown(ctrl, "close chip "+req.Chip)

	line, err := ctrl.RequestOutput(gpio.LineConfig{
		Offset:    req.Offset,
		Consumer:  req.Consumer,
		ActiveLow: req.ActiveLow,
	})
	if err != nil {
		return false, err
	}
	defer s.teardown(line, fmt.Sprintf("release line %d", req.Offset))

	on, err := ParseAction(req.Action)
	if err != nil {
		return false, err
	}

	if err := line.SetValue(on); err != nil {
		return false, err
	}
	return on, nil
}

func (s *Switcher) teardown(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		s.logger().Printf("%s: %v", what, err)
	}
}

func (s *Switcher) logger() *log.Logger {
	if s.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return s.Log
}
