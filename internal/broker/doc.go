// Package broker is the hub's in-process publish/subscribe bus.
//
// Adapters never call each other directly: the attach endpoint, the
// coordinator relay and the procedure layer exchange messages through named
// topics such as "device/attach" or "procedure/call".
//
// Lifecycle:
//
//	b := broker.New()
//	b.Subscribe("device/attach", "relay", handler)
//	b.Start()
//	defer b.Stop() // delivers everything already published, then returns
package broker
