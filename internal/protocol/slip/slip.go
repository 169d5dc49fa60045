package slip

import "bytes"

// Delimiter bytes from RFC 1055.
const (
	End    byte = 0xC0
	Esc    byte = 0xDB
	EscEnd byte = 0xDC
	EscEsc byte = 0xDD
)

var (
	endSeq     = []byte{End}
	escSeq     = []byte{Esc}
	escapedEnd = []byte{Esc, EscEnd}
	escapedEsc = []byte{Esc, EscEsc}
)

// Escape byte-stuffs payload. Esc must be replaced before End, otherwise the
// Esc bytes introduced for End would be escaped a second time.
func Escape(payload []byte) []byte {
	out := bytes.ReplaceAll(payload, escSeq, escapedEsc)
	return bytes.ReplaceAll(out, endSeq, escapedEnd)
}

// Unescape reverses Escape in the inverse order. Replacement is textual: an
// Esc not followed by EscEnd or EscEsc is kept as a literal byte.
func Unescape(body []byte) []byte {
	out := bytes.ReplaceAll(body, escapedEnd, endSeq)
	return bytes.ReplaceAll(out, escapedEsc, escSeq)
}

// Encode returns the wire frame for one datagram: End, escaped payload, End.
// An empty datagram encodes to {End, End}.
func Encode(datagram []byte) []byte {
	escaped := Escape(datagram)
	frame := make([]byte, 0, len(escaped)+2)
	frame = append(frame, End)
	frame = append(frame, escaped...)
	return append(frame, End)
}

// DecodeAll decodes every complete frame in stream. Bytes after the last End
// are ignored.
func DecodeAll(stream []byte) [][]byte {
	var r Reassembler
	out, _ := r.Feed(stream)
	return out
}
