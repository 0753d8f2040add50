// Package device provides the Shared-Object Store for the Electric World grid.
//
// The store is the single owner of every player-placed grid device
// (generators, batteries, power lines, consumers, ...). It holds the
// canonical state of each device, maintains the symmetric connection graph
// between devices, and derives PowerNetwork aggregates from that graph.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                        Shared-Object Store                     │
//	│                                                                │
//	│  ┌────────────────┐   ┌────────────────┐   ┌────────────────┐  │
//	│  │     Store      │   │   Validation   │   │    Networks    │  │
//	│  │   (store.go)   │──▶│(validation.go) │   │  (network.go)  │  │
//	│  │ • CRUD ops     │   │ • Type/state   │   │ • Components   │  │
//	│  │ • Connections  │   │ • Health range │   │ • Power totals │  │
//	│  │ • Ownership    │   │ • Properties   │   │ • Power flow   │  │
//	│  └────────────────┘   └────────────────┘   └────────────────┘  │
//	└───────────────────────────────────────────────────────────────┘
//
// # Invariants
//
//   - A device id maps to exactly one Device until it is deleted.
//   - Connections are symmetric: B ∈ A.OutputConnections ⇔ A ∈ B.InputConnections.
//   - Connections only reference devices present in the store; deleting a
//     device removes it from every neighbour's connection sets.
//
// # Usage
//
//	store := device.NewStore(device.WithOwnershipEnforcement(true))
//	d, err := store.Create(device.Draft{ID: "d1", Type: device.TypeGenerator}, "player_1")
//	err = store.Connect("d1", "d2", "player_1")
//
// Thread Safety: All methods are safe for concurrent use. Returned devices
// are deep copies; callers can modify them freely.
package device
