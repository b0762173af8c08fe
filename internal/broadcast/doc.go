// Package broadcast streams the live reactor state to WebSocket clients.
//
// The Broadcaster pulls a sim.LiveFrame on every tick and fans it out to all
// connected clients. It runs as a single goroutine fed by a command channel.
// Per-connection writer goroutines absorb slow clients; a client whose buffer
// is full is disconnected.
package broadcast
