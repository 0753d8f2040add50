// Package relay forwards applied game events to external systems.
//
// MQTTSink republishes every event record on <prefix>/event/<kind> and keeps
// a retained <prefix>/device/<id>/state topic per live device. Telemetry
// writes device health, network balance and event counts to InfluxDB.
//
// Both implement events.Sink and run on the event bus goroutine, never on
// the dispatch path.
package relay
