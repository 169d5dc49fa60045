package transport

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// PTY is a pseudo-terminal serial line. The link owns the master side; the
// other end attaches to Name(), e.g. with slattach.
type PTY struct {
	*Stream
	tty *os.File
}

func OpenPTY() (*PTY, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("transport: open pty: %w", err)
	}
	// Echo and line discipline would corrupt binary frames.
	if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
		_ = ptmx.Close()
		_ = tty.Close()
		return nil, fmt.Errorf("transport: raw pty %s: %w", tty.Name(), err)
	}
	return &PTY{Stream: NewStream("pty:"+tty.Name(), ptmx), tty: tty}, nil
}

// Name is the device path of the slave side.
func (p *PTY) Name() string {
	return p.tty.Name()
}

func (p *PTY) Close() error {
	err := p.Stream.Close()
	if cerr := p.tty.Close(); err == nil {
		err = cerr
	}
	return err
}
