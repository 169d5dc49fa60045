package slip

import "bytes"

// Reassembler recovers datagram boundaries from an arbitrarily fragmented
// byte stream. It only ever holds the unterminated tail seen after the last
// End byte. Not safe for concurrent use.
type Reassembler struct {
	buf []byte
}

// Feed appends chunk to the pending tail and returns the unescaped datagrams
// of every frame it completes, in stream order, along with the number of
// empty frames skipped. End opens and closes frames alike, so back-to-back
// End bytes produce empty segments that are never delivered.
func (r *Reassembler) Feed(chunk []byte) ([][]byte, int) {
	r.buf = append(r.buf, chunk...)

	segments := bytes.Split(r.buf, endSeq)
	tail := segments[len(segments)-1]
	complete := segments[:len(segments)-1]

	var datagrams [][]byte
	empty := 0
	for _, segment := range complete {
		if len(segment) == 0 {
			empty++
			continue
		}
		datagrams = append(datagrams, Unescape(segment))
	}

	// Copy the tail so the old buffer, and the frames aliasing it, can be released.
	r.buf = append([]byte(nil), tail...)
	return datagrams, empty
}

// Pending returns the number of buffered bytes not yet terminated by End.
func (r *Reassembler) Pending() int {
	return len(r.buf)
}
