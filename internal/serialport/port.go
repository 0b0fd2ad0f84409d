// Package serialport owns the byte channel to the analyzer: a retrying open,
// bounded-timeout reads and writes, and a mockable port abstraction so the
// protocol and sweep layers can be tested without hardware.
package serialport

import (
	"io"
	"time"
)

// Porter defines the serial port operations the analyzer link depends on.
// This abstraction enables unit testing without a real serial device.
type Porter interface {
	io.ReadWriteCloser

	// SetReadTimeout sets the deadline applied to subsequent Read calls.
	// A Read that expires returns (0, nil).
	SetReadTimeout(timeout time.Duration) error

	// ResetInputBuffer discards any unread bytes buffered by the driver.
	ResetInputBuffer() error
}

// PortFactory defines an interface for creating serial ports.
// This abstraction enables dependency injection of serial port creation.
type PortFactory interface {
	// Open opens a serial port at the specified path with the given options.
	Open(path string, opts Options) (Porter, error)
}

// PortOpener is a function adapter for PortFactory.
type PortOpener func(path string, opts Options) (Porter, error)

// Open implements PortFactory.
func (f PortOpener) Open(path string, opts Options) (Porter, error) {
	return f(path, opts)
}
