// Package transport provides byte transports for links.
//
// Every endpoint satisfies link.Transport: a single receiver callback fed one
// chunk per read, and a Send that writes one frame atomically. Chunks carry no
// framing of their own; reassembly is the link's job.
package transport
