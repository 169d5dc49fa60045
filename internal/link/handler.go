package link

import (
	"fmt"

	"github.com/danmuck/slipmux/internal/logging"
)

// Transport is the byte-oriented collaborator under a Link. RegisterReceiver
// stores a single callback invoked once per inbound chunk. Send transmits raw
// bytes; its error is surfaced to the caller untouched.
type Transport interface {
	RegisterReceiver(fn func(chunk []byte))
	Send(b []byte) error
}

// Handler consumes decoded datagrams.
type Handler interface {
	HandleDatagram(datagram []byte) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(datagram []byte) error

func (f HandlerFunc) HandleDatagram(datagram []byte) error {
	return f(datagram)
}

// ErrorReporter receives delivery failures that the link swallows.
type ErrorReporter interface {
	ReportDeliveryError(peer string, datagram []byte, err error)
}

// ErrorReporterFunc adapts a function into an ErrorReporter.
type ErrorReporterFunc func(peer string, datagram []byte, err error)

func (f ErrorReporterFunc) ReportDeliveryError(peer string, datagram []byte, err error) {
	f(peer, datagram, err)
}

// LogReporter logs the failure with its peer and a datagram prefix.
type LogReporter struct{}

// ReportDeliveryError logs at error level; the datagram is cut to 64 bytes.
func (LogReporter) ReportDeliveryError(peer string, datagram []byte, err error) {
	logging.Errf("link.deliver failed peer=%q len=%d datagram=% X err=%v", peer, len(datagram), truncate(datagram, 64), err)
}

// handlerSlot lets a nil Handler be stored in an atomic.Pointer.
type handlerSlot struct {
	h Handler
}

// deliver invokes h, converting a panic into an error.
func deliver(h Handler, datagram []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.HandleDatagram(datagram)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
