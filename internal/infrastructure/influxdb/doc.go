// Package influxdb writes hub telemetry to InfluxDB v2.
//
// The hub records one point per message routed through its external
// queues. Writes are batched by the client library and never block message
// routing; write failures are reported through SetOnError.
package influxdb
