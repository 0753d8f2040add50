// Package influxdb writes Electric World grid telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched point writing, and health monitoring.
//
// # Measurements
//
//   - device_health: health, state and power of one device after a change
//   - power_network: aggregate generation, consumption and stability of a network
//   - game_events: one point per applied game event, tagged by kind
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteEvent("device/created", "player_1", time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are non-blocking; failures are reported through SetOnError.
package influxdb
