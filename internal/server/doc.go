// Package server wires the Electric World core together and owns its
// lifecycle.
//
// A Server holds the session registry, the device store, the WebSocket
// hub, the dispatcher and the event bus, and serves them over one HTTP
// listener:
//
//	srv, err := server.New(server.Deps{Config: cfg, Logger: logger})
//	if err := srv.Start(ctx); err != nil {
//	    return err // bind failures surface here
//	}
//	defer srv.Stop()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package server
