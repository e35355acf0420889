package relay

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/sweeney/relay-control/internal/gpio"
)

// closeErrLine wraps a line and fails on Close.
type closeErrLine struct {
	gpio.Line
}

func (closeErrLine) Close() error { return errors.New("ebusy") }

type closeErrChip struct {
	*gpio.FakeChip
}

func (c closeErrChip) RequestOutput(cfg gpio.LineConfig) (gpio.Line, error) {
	l, err := c.FakeChip.RequestOutput(cfg)
	if err != nil {
		return nil, err
	}
	return closeErrLine{l}, nil
}

func newSwitcher() (*Switcher, *gpio.FakeOpener, *gpio.FakeChip) {
	chip := gpio.NewFakeChip("gpiochip0", 32)
	o := gpio.NewFakeOpener(chip)
	return &Switcher{Open: o.Open}, o, chip
}

func request(action string) Request {
	return Request{Chip: "gpiochip0", Offset: 17, Consumer: gpio.DefaultConsumer, Action: action}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"off", false, false},
		{"ON", false, true},
		{"Off", false, true},
		{"toggle", false, true},
		{"", false, true},
		{" on", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Errorf("expected ErrInvalidAction, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwitchOnOff(t *testing.T) {
	for _, tt := range []struct {
		action string
		want   bool
	}{
		{"on", true},
		{"off", false},
	} {
		t.Run(tt.action, func(t *testing.T) {
			s, _, chip := newSwitcher()

			on, err := s.Switch(request(tt.action))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if on != tt.want {
				t.Errorf("returned level: got %v, want %v", on, tt.want)
			}

			line := chip.Lines[17]
			if line == nil {
				t.Fatal("line 17 was not requested")
			}
			if line.Value != tt.want {
				t.Errorf("line value: got %v, want %v", line.Value, tt.want)
			}
			if line.Writes != 1 {
				t.Errorf("Writes: got %d, want 1", line.Writes)
			}
			if line.Consumer != "relay-control" {
				t.Errorf("Consumer: got %q, want relay-control", line.Consumer)
			}
			if !line.Closed || !chip.Closed {
				t.Error("expected line released and chip closed")
			}
			if line.ClosedAfterChip {
				t.Error("line must be released before the chip is closed")
			}
		})
	}
}

func TestSwitchActiveLow(t *testing.T) {
	s, _, chip := newSwitcher()
	req := request("on")
	req.ActiveLow = true

	if _, err := s.Switch(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := chip.Lines[17]
	if !line.ActiveLow {
		t.Error("expected line requested active-low")
	}
	if !line.Value {
		t.Error("logical value should be high")
	}
	if line.Level() != 0 {
		t.Errorf("physical level: got %d, want 0", line.Level())
	}
}

func TestSwitchInvalidActionReleases(t *testing.T) {
	s, o, chip := newSwitcher()

	_, err := s.Switch(request("toggle"))
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}

	if len(o.Opened) != 1 {
		t.Errorf("chip opens: got %d, want 1", len(o.Opened))
	}
	line := chip.Lines[17]
	if line == nil {
		t.Fatal("line should have been acquired before the action was checked")
	}
	if line.Writes != 0 {
		t.Errorf("Writes: got %d, want 0", line.Writes)
	}
	if line.Value {
		t.Error("line should remain at its default low")
	}
	if !line.Closed || !chip.Closed {
		t.Error("expected line released and chip closed")
	}
}

func TestSwitchOpenFailure(t *testing.T) {
	s, o, chip := newSwitcher()
	o.OpenError = errors.New("permission denied")

	_, err := s.Switch(request("on"))
	var oerr *gpio.DeviceOpenError
	if !errors.As(err, &oerr) {
		t.Fatalf("expected DeviceOpenError, got %v", err)
	}
	if chip.Requests != 0 {
		t.Errorf("line request attempted after open failure: %d", chip.Requests)
	}
	if chip.CloseCalls != 0 {
		t.Errorf("chip that never opened was closed %d times", chip.CloseCalls)
	}
}

func TestSwitchRequestFailure(t *testing.T) {
	s, _, chip := newSwitcher()
	chip.Busy[17] = "someone-else"

	_, err := s.Switch(request("on"))
	var rerr *gpio.LineRequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected LineRequestError, got %v", err)
	}
	if _, ok := chip.Lines[17]; ok {
		t.Error("no line should be recorded after a failed request")
	}
	if !chip.Closed {
		t.Error("chip should be closed after a failed request")
	}
}

func TestSwitchOffsetOutOfRange(t *testing.T) {
	s, _, chip := newSwitcher()
	req := request("on")
	req.Offset = 64

	_, err := s.Switch(req)
	if !errors.Is(err, gpio.ErrFakeOffset) {
		t.Fatalf("expected ErrFakeOffset, got %v", err)
	}
	if !chip.Closed {
		t.Error("chip should be closed")
	}
}

func TestSwitchWriteFailure(t *testing.T) {
	s, _, chip := newSwitcher()
	chip.SetError = errors.New("no such device")

	_, err := s.Switch(request("on"))
	var werr *gpio.LineWriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected LineWriteError, got %v", err)
	}
	line := chip.Lines[17]
	if !line.Closed || !chip.Closed {
		t.Error("expected line released and chip closed after write failure")
	}
}

func TestSwitchLogsTeardownFailure(t *testing.T) {
	chip := gpio.NewFakeChip("gpiochip0", 32)
	var buf bytes.Buffer
	s := &Switcher{
		Open: func(string) (gpio.Controller, error) { return closeErrChip{chip}, nil },
		Log:  log.New(&buf, "", 0),
	}

	on, err := s.Switch(request("on"))
	if err != nil {
		t.Fatalf("teardown failure must not mask success: %v", err)
	}
	if !on {
		t.Error("expected logical high")
	}
	if !strings.Contains(buf.String(), "release line 17: ebusy") {
		t.Errorf("log: got %q", buf.String())
	}
	if !chip.Closed {
		t.Error("chip should still be closed")
	}
}
