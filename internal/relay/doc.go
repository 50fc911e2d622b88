// Package relay connects device traffic on the in-process broker with the
// coordinator's external queues.
//
// Device attach and event messages are sent to the coordinator as JSON
// commands carrying a "type" key. Commands arriving from the coordinator
// are published back on the broker under command/<type>. Identity service
// commands are passed through to the coordinator queue byte for byte.
package relay
