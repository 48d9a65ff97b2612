// Package ws streams session events to presentation clients over
// WebSocket.
//
// Each connection receives a "hello" message with its subscriber id, the
// current navigation view, then every "navigation" and "state" event of
// the session. Clients may send {"type":"ping"} and receive a pong. Slow
// clients lose events rather than stalling surfaces.
package ws
