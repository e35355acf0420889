// Command relay-control switches a relay on a GPIO output line on or off.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/sweeney/relay-control/internal/gpio"
	"github.com/sweeney/relay-control/internal/mqtt"
	"github.com/sweeney/relay-control/internal/relay"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// UsageError reports bad command-line arguments.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	if e.Msg == "" {
		return "usage error"
	}
	return e.Msg
}

// env carries the collaborators run needs, so tests can substitute fakes.
type env struct {
	open      gpio.OpenFunc
	publisher func(broker string) (mqtt.Publisher, error)
	now       func() time.Time
	stdout    io.Writer
	stderr    io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], env{
		open:      gpio.OpenReal,
		publisher: newRealPublisher,
		now:       time.Now,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}))
}

func newRealPublisher(broker string) (mqtt.Publisher, error) {
	p, err := mqtt.NewRealPublisher(broker, "relay-control")
	if err != nil {
		return nil, err
	}
	return p, nil
}

type options struct {
	chip      string
	consumer  string
	activeLow bool
	broker    string
	offset    int
	action    string
}

func run(args []string, e env) int {
	logger := log.New(e.stderr, "relay-control: ", 0)

	opts, err := parseArgs(args, e.stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return report(logger, err)
	}

	s := &relay.Switcher{Open: e.open, Log: logger}
	on, err := s.Switch(relay.Request{
		Chip:      opts.chip,
		Offset:    opts.offset,
		Consumer:  opts.consumer,
		ActiveLow: opts.activeLow,
		Action:    opts.action,
	})
	if err != nil {
		return report(logger, err)
	}

	fmt.Fprintf(e.stdout, "Relay is %s.\n", mqtt.StateString(on))

	if opts.broker != "" {
		publishState(logger, e, opts, on)
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("relay-control", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO chip name or device path")
	fs.StringVar(&opts.consumer, "consumer", gpio.DefaultConsumer, "Consumer label recorded against the line")
	fs.BoolVar(&opts.activeLow, "active-low", false, "Treat the line as active-low (relay switches on a low level)")
	fs.StringVar(&opts.broker, "broker", "", "MQTT broker to publish the relay state to (empty to disable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <line_number> <on|off>\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		// flag has already printed the error and usage
		return opts, &UsageError{}
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return opts, &UsageError{Msg: fmt.Sprintf("expected 2 arguments, got %d", fs.NArg())}
	}

	offset, err := strconv.Atoi(fs.Arg(0))
	if err != nil || offset < 0 {
		fs.Usage()
		return opts, &UsageError{Msg: fmt.Sprintf("invalid line number %q", fs.Arg(0))}
	}
	opts.offset = offset
	opts.action = fs.Arg(1)

	return opts, nil
}

// report writes a one-line diagnostic for err and returns the exit code.
func report(logger *log.Logger, err error) int {
	var uerr *UsageError
	switch {
	case errors.As(err, &uerr):
		if uerr.Msg != "" {
			logger.Print(uerr.Msg)
		}
		return exitUsage
	case errors.Is(err, relay.ErrInvalidAction):
		logger.Print("Invalid action. Use 'on' or 'off'.")
		return exitUsage
	default:
		logger.Print(err)
		return exitFailure
	}
}

// publishState reports the switched state to the broker. Failures are logged;
// the relay has already been switched.
func publishState(logger *log.Logger, e env, opts options, on bool) {
	p, err := e.publisher(opts.broker)
	if err != nil {
		logger.Printf("mqtt: %v", err)
		return
	}
	defer p.Close()

	event := mqtt.StateEvent{
		Timestamp: e.now(),
		Chip:      opts.chip,
		Line:      opts.offset,
		Consumer:  opts.consumer,
		On:        on,
	}
	if err := p.Publish(event); err != nil {
		logger.Printf("mqtt: %v", err)
	}
}
