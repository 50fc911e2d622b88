package dispatch

// PointWriter is satisfied by the InfluxDB client.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any)
}

// routingMeasurement is the measurement name for routed message points.
const routingMeasurement = "queue_routing"

// PointRecorder turns routing events into time-series points.
type PointRecorder struct {
	writer   PointWriter
	deviceID string
}

// NewPointRecorder creates a Recorder that writes to w.
func NewPointRecorder(w PointWriter, deviceID string) *PointRecorder {
	return &PointRecorder{writer: w, deviceID: deviceID}
}

// RecordRoute writes one point for ev.
func (r *PointRecorder) RecordRoute(ev Event) {
	status := "ok"
	if ev.Err != nil {
		status = "error"
	}
	r.writer.WritePoint(routingMeasurement,
		map[string]string{
			"device_id": r.deviceID,
			"direction": string(ev.Direction),
			"queue":     ev.Queue,
			"encoding":  ev.Encoding.String(),
			"status":    status,
		},
		map[string]any{
			"bytes": ev.Size,
		},
	)
}
