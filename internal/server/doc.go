// Package server exposes device state over a local HTTP and WebSocket bridge.
//
// The bridge is the attachment point for out-of-process frontends: anything
// that wants a live view of the G6 without speaking USB HID itself. It serves
// JSON only and is intended to bind to localhost.
//
// # Endpoints
//
//   - GET /state   - current settings snapshot as JSON
//   - GET /events  - WebSocket upgrade; streams device events as JSON
//   - GET /healthz - connection flag and client count
//
// # Event Stream
//
// Every WebSocket client first receives a "snapshot" event carrying the full
// current settings, then one event per state change. Events always embed a
// complete post-change settings snapshot, so clients never apply deltas.
//
//	{"type":"output_changed","field":"output","state":{...},"time":"..."}
//
// Hardware-initiated changes (relay button, volume knob) arrive on the same
// stream as host-initiated ones.
//
// # Usage Example
//
//	manager := device.NewManager(device.Options{})
//	if err := manager.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.New(&server.Config{Host: "127.0.0.1", Port: 8732}, manager)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The bridge handles SIGINT and SIGTERM:
//  1. Stop accepting new connections
//  2. Close existing WebSocket connections
//  3. Wait for stream goroutines to finish
//
// # Thread Safety
//
// Each WebSocket client runs in its own goroutine with its own event
// subscription. All handlers are safe for concurrent use.
package server
