// Package hub assembles the hub's sub-applications.
//
// The core (broker and procedure registry) starts first; adapters such as
// the transport dispatcher, the configuration server, the coordinator relay
// and the attach endpoint start after it in a fixed order and stop in
// reverse.
package hub
