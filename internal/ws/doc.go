// Package ws routes presence, chat invites and chat messages between live
// WebSocket connections.
//
// The package implements:
//   - Registry: maps a user ID to its single live connection (last registration wins)
//   - Router: forwards directed invite / accept / decline events to the current connection of the recipient
//   - Channel: fans chat messages out to every live connection, or to a chat's participants
//   - Gateway: per-connection state machine (connected, registered, closed) and inbound event dispatch
//   - Handler: upgrades HTTP requests and runs the read and write pumps
//   - Service: wires the pieces together for the HTTP layer
//
// Delivery is best-effort: an offline recipient is a normal outcome, nothing
// is queued or retried, and a failed send to one connection never affects
// the others.
package ws
