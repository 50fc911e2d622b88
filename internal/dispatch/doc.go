// Package dispatch relays commands between the hub and its external
// queues.
//
// Outbound traffic goes to <device-id>-dc-commands either as raw bytes
// (Forward) or as a JSON-encoded command (SendCommand). Coordinator commands
// arrive on <device-id>-hc-commands and identity service commands on
// <device-id>; both are handed to registered handlers.
//
// The dispatcher must not open any channel before bootstrap has produced
// broker credentials or decided to fall back to the transport's stock
// identity, so Start takes the bootstrap outcome explicitly.
package dispatch
