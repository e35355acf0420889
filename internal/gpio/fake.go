package gpio

import (
	"errors"
	"os"
)

// Errors returned by the simulated controller.
var (
	ErrFakeOffset = errors.New("offset out of range")
	ErrFakeBusy   = errors.New("line busy")
)

// FakeOpener is a test double that hands out simulated chips by name.
type FakeOpener struct {
	// Chips maps chip name to simulated chip.
	Chips map[string]*FakeChip

	// Opened records every chip name passed to Open, in order.
	Opened []string

	// OpenError, if set, will be returned by Open.
	OpenError error
}

// NewFakeOpener creates a FakeOpener serving the given chips by their Name.
func NewFakeOpener(chips ...*FakeChip) *FakeOpener {
	o := &FakeOpener{Chips: make(map[string]*FakeChip)}
	for _, c := range chips {
		o.Chips[c.Name] = c
	}
	return o
}

// Open is an OpenFunc over the simulated chips.
func (o *FakeOpener) Open(name string) (Controller, error) {
	o.Opened = append(o.Opened, name)
	if o.OpenError != nil {
		return nil, &DeviceOpenError{Chip: name, Err: o.OpenError}
	}
	c, ok := o.Chips[name]
	if !ok {
		return nil, &DeviceOpenError{Chip: name, Err: os.ErrNotExist}
	}
	c.Closed = false
	c.Opens++
	return c, nil
}

// FakeChip is a simulated GPIO chip.
type FakeChip struct {
	Name     string
	NumLines int

	// Busy maps offsets held by another consumer to that consumer's label.
	Busy map[int]string

	// Lines records the lines requested from this chip, by offset.
	Lines map[int]*FakeLine

	// Requests counts calls to RequestOutput.
	Requests int

	// RequestError, if set, will be returned by RequestOutput.
	RequestError error

	// SetError, if set, is installed on every line requested afterwards.
	SetError error

	Opens      int
	Closed     bool
	CloseCalls int
}

// NewFakeChip creates a simulated chip with n lines.
func NewFakeChip(name string, n int) *FakeChip {
	return &FakeChip{
		Name:     name,
		NumLines: n,
		Busy:     make(map[int]string),
		Lines:    make(map[int]*FakeLine),
	}
}

// RequestOutput acquires a simulated output line at logical low.
func (c *FakeChip) RequestOutput(cfg LineConfig) (Line, error) {
	c.Requests++
	if c.RequestError != nil {
		return nil, &LineRequestError{Chip: c.Name, Offset: cfg.Offset, Err: c.RequestError}
	}
	if c.Closed {
		return nil, &LineRequestError{Chip: c.Name, Offset: cfg.Offset, Err: os.ErrClosed}
	}
	if cfg.Offset < 0 || cfg.Offset >= c.NumLines {
		return nil, &LineRequestError{Chip: c.Name, Offset: cfg.Offset, Err: ErrFakeOffset}
	}
	if _, busy := c.Busy[cfg.Offset]; busy {
		return nil, &LineRequestError{Chip: c.Name, Offset: cfg.Offset, Err: ErrFakeBusy}
	}
	if l, ok := c.Lines[cfg.Offset]; ok && !l.Closed {
		return nil, &LineRequestError{Chip: c.Name, Offset: cfg.Offset, Err: ErrFakeBusy}
	}

	l := &FakeLine{
		chip:      c,
		Offset:    cfg.Offset,
		Consumer:  cfg.Consumer,
		ActiveLow: cfg.ActiveLow,
		SetError:  c.SetError,
	}
	c.Lines[cfg.Offset] = l
	return l, nil
}

// Close marks the chip as closed.
func (c *FakeChip) Close() error {
	c.CloseCalls++
	c.Closed = true
	return nil
}

// FakeLine is a simulated output line.
type FakeLine struct {
	chip *FakeChip

	Offset    int
	Consumer  string
	ActiveLow bool

	// Value is the current logical level.
	Value bool

	// Writes counts successful calls to SetValue.
	Writes int

	// SetError, if set, will be returned by SetValue.
	SetError error

	// ClosedAfterChip is set if the line was released after its chip closed.
	ClosedAfterChip bool

	Closed     bool
	CloseCalls int
}

// SetValue records the logical level.
func (l *FakeLine) SetValue(on bool) error {
	if l.SetError != nil {
		return &LineWriteError{Offset: l.Offset, Err: l.SetError}
	}
	if l.Closed {
		return &LineWriteError{Offset: l.Offset, Err: os.ErrClosed}
	}
	l.Value = on
	l.Writes++
	return nil
}

// Level returns the physical level the simulated pin is driven to.
func (l *FakeLine) Level() int {
	return level(l.Value != l.ActiveLow)
}

// Close marks the line as released.
func (l *FakeLine) Close() error {
	l.CloseCalls++
	if !l.Closed && l.chip != nil && l.chip.Closed {
		l.ClosedAfterChip = true
	}
	l.Closed = true
	return nil
}
