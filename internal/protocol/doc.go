// Package protocol groups the link-layer wire primitives.
//
// Ownership boundary:
// - slip: RFC 1055 byte stuffing, framing, stream reassembly
//
// No length prefix, checksum, or version byte is carried on the wire.
package protocol
