// Package dispatch routes inbound client frames to game handlers.
//
// A single worker drains one queue of transport events (connects,
// disconnects and frames from every connection) in arrival order, so no two
// messages are ever applied to the session registry or device store at the
// same time. Every handler failure, decode error or panic is caught here,
// logged, and answered with a system/error frame to the originating
// connection only. The worker itself never stops because of a bad message.
//
// Architecture:
//
//	transport read pumps ──Submit──► queue ──► Run (one goroutine)
//	                                              │
//	                      ┌───────────────────────┼──────────────────┐
//	                      ▼                       ▼                  ▼
//	               session.Registry         device.Store      fanout (unicast,
//	                                                           broadcast)
//	                                              │
//	                                              ▼
//	                                      events.Bus (journal, relay)
package dispatch
