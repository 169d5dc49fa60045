package transport

import (
	"fmt"
	"os"
)

// OpenDevice opens an existing character device (serial port, pty slave)
// for reading and writing. Line settings are left as configured.
func OpenDevice(path string) (*Stream, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: open device %s: %w", path, err)
	}
	return NewStream("device:"+path, f), nil
}
