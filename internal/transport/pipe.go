package transport

import "net"

// Pipe returns two connected in-memory streams. Writes on one side are read
// by the other; both sides must be started.
func Pipe(nameA, nameB string) (*Stream, *Stream) {
	c1, c2 := net.Pipe()
	return NewStream(nameA, c1), NewStream(nameB, c2)
}
