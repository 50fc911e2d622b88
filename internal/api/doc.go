// Package api implements the hub's HTTP surface.
//
// Field devices announce themselves with POST /attach. The handler records
// the caller's address as device_ip and publishes the body on the in-process
// broker as a device/attach event; routing to the coordinator happens
// downstream, so the endpoint acknowledges as soon as the event is accepted.
//
// GET /health reports the bootstrap outcome and whether the command
// dispatcher has its channels open.
//
// Middleware: request ID (X-Request-ID, generated as a UUID when absent),
// request logging, panic recovery and a 1 MB body limit.
package api
