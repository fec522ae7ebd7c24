// Package mqtt provides broker connectivity for the display client's
// realtime channels.
//
// This package manages:
//   - Connection to the backend's broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for presence tracking
//   - Connection health monitoring
//
// # Architecture
//
// The backend pushes order and catalog changes to screens over the
// broker; screens publish item intents and presence back. Each screen
// holds two connections: a device channel (direct messages, broadcasts)
// and a display channel (the per-event order feed).
//
//	Backend ↔ Broker ↔ Display clients
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Channels authenticate with the backend-issued device token
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Realtime, "tvdisplay-d1-device", creds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.DeviceInbox("d1"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
