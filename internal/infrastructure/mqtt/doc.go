// Package mqtt is the hub's external message transport.
//
// The coordinator and the identity service reach the hub through named
// durable queues. Each queue is a topic under the configured prefix:
//
//	<prefix>/q/<device-id>-dc-commands   hub → coordinator
//	<prefix>/q/<device-id>-hc-commands   coordinator → hub
//	<prefix>/q/<device-id>               identity service → hub
//
// Durability comes from the broker: the connection uses a persistent
// session (clean session off, stable client ID) and QoS 1, so messages sent
// while the hub is offline are delivered when it reconnects. Reconnection
// and session resumption are owned by paho.
//
// # Usage
//
//	transport := mqtt.NewQueueTransport(cfg.MQTT)
//	conn, err := transport.Dial(ctx, creds.Username, creds.Password)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	conn.Consume("dev-1-hc-commands", true, func(payload []byte) { ... })
//	conn.Publish("dev-1-dc-commands", payload, true)
package mqtt
