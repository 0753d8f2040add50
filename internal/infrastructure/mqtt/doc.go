// Package mqtt publishes Electric World events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) so subscribers see the server go offline
//   - Connection health monitoring
//
// # Architecture
//
// The game server is the only publisher. Dashboards and bots subscribe to
// the event topics instead of opening a game WebSocket:
//
//	Game server → MQTT Broker → Dashboards, bots, recorders
//
// # Security Considerations
//
//   - Enable TLS outside local development (cfg.Broker.TLS=true)
//   - Credentials are validated against the broker ACL
//   - Set the password via ELECTRICWORLD_MQTT_PASSWORD, not the config file
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	client.Publish(topics.Event("device/created"), payload, 1, false)
package mqtt
