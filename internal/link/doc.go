// Package link owns the SLIP link layer above a byte transport.
//
// Ownership boundary:
// - one Link per transport: framing on send, reassembly on receive
// - Multiplexer: next-hop routing and fan-in to one upward receiver
// - delivery failure isolation and reporting
//
// Wire format and escaping live in internal/protocol/slip.
package link
