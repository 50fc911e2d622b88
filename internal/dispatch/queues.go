package dispatch

import (
	"fmt"
	"strings"
)

// Binding names an external queue.
type Binding struct {
	Name    string
	Durable bool
}

// Queues are the three channels a hub uses.
type Queues struct {
	// Outbound carries hub → coordinator traffic.
	Outbound Binding

	// Inbound carries coordinator → hub commands.
	Inbound Binding

	// Identity carries identity service → hub commands.
	Identity Binding
}

// ValidateDeviceID reports whether id can be used in queue names. Queue
// names map onto single transport topic levels, so the id must be non-empty
// and free of '/', '+' and '#'.
func ValidateDeviceID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDeviceID)
	}
	if strings.ContainsAny(id, "/+#") {
		return fmt.Errorf("%w: %q contains a topic separator or wildcard", ErrInvalidDeviceID, id)
	}
	return nil
}

// QueuesFor derives the queue names for a device.
func QueuesFor(deviceID string) Queues {
	return Queues{
		Outbound: Binding{Name: deviceID + "-dc-commands", Durable: true},
		Inbound:  Binding{Name: deviceID + "-hc-commands", Durable: true},
		Identity: Binding{Name: deviceID, Durable: true},
	}
}

// Encoding says how an outbound payload was produced.
type Encoding int

const (
	// Raw payloads are forwarded byte for byte.
	Raw Encoding = iota

	// JSON payloads are locally originated commands.
	JSON
)

func (e Encoding) String() string {
	if e == JSON {
		return "json"
	}
	return "raw"
}

// Direction of a routed message.
type Direction string

const (
	// Outbound is hub to coordinator, on the -dc-commands queue.
	Outbound Direction = "outbound"

	// Inbound is coordinator to hub, on the -hc-commands queue.
	Inbound Direction = "inbound"

	// Identity is identity service to hub, on the queue named after the
	// device.
	Identity Direction = "identity"
)
