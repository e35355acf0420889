// Package mqtt publishes relay state to an MQTT broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"path"
	"time"
)

// TopicPrefix is the root of all relay state topics.
const TopicPrefix = "relay"

// Publisher publishes relay state events.
type Publisher interface {
	// Publish sends a relay state event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event StateEvent) error

	// Close disconnects from the broker.
	Close() error
}

// StateEvent records the level a relay line was switched to.
type StateEvent struct {
	Timestamp time.Time
	Chip      string // chip name or device path
	Line      int
	Consumer  string
	On        bool
}

// Topic returns the state topic for a line, e.g. "relay/gpiochip0/17/state".
// Device paths are reduced to the chip name.
func Topic(chip string, line int) string {
	return fmt.Sprintf("%s/%s/%d/state", TopicPrefix, path.Base(chip), line)
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Relay RelayPayload `json:"relay"`
}

// RelayPayload contains the relay state details.
type RelayPayload struct {
	Timestamp string `json:"timestamp"`
	Chip      string `json:"chip"`
	Line      int    `json:"line"`
	Consumer  string `json:"consumer,omitempty"`
	State     string `json:"state"`
}

// StateString returns "ON" or "OFF".
func StateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// FormatPayload creates the JSON payload for a relay state event.
func FormatPayload(event StateEvent) ([]byte, error) {
	payload := Payload{
		Relay: RelayPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Chip:      path.Base(event.Chip),
			Line:      event.Line,
			Consumer:  event.Consumer,
			State:     StateString(event.On),
		},
	}
	return json.Marshal(payload)
}
