package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint queues a point stamped with the current time.
//
// The write is non-blocking; points are batched and sent asynchronously, and
// failures are reported through SetOnError. Points written to a nil or
// closed client are dropped.
//
// Parameters:
//   - measurement: Measurement name (e.g., "queue_routing")
//   - tags: Indexed tags such as device_id and direction
//   - fields: Field values for the point
//
// Example:
//
//	client.WritePoint("queue_routing",
//	    map[string]string{"direction": "outbound"},
//	    map[string]any{"bytes": 42})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
