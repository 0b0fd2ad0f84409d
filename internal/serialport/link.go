package serialport

import (
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrTimeout is returned when the device produces no data within the
	// read deadline.
	ErrTimeout = errors.New("serialport: read timed out")

	// ErrWriteFailed is returned when fewer bytes than requested reach the
	// port.
	ErrWriteFailed = errors.New("serialport: failed to write to serial port")

	// ErrClosed is returned for operations on a closed link.
	ErrClosed = errors.New("serialport: link is closed")
)

// ConnectError reports an open that failed after exhausting its retries.
type ConnectError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to open serial port %s after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Link wraps a serial port with the bounded-timeout read and write semantics
// the analyzer protocol requires. A Link is owned by exactly one controller
// at a time; concurrent access is not guarded.
type Link struct {
	port   Porter
	opts   Options
	closed bool
}

// pollTimeout is the per-read deadline used while accumulating bytes over a
// ReadAvailable window.
const pollTimeout = 20 * time.Millisecond

// Open opens the serial port at path, retrying transient failures up to the
// configured attempt count with a delay between attempts. After exhaustion it
// returns a *ConnectError wrapping the last failure.
func Open(path string, opts Options, factory PortFactory) (*Link, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= opts.OpenRetries; attempt++ {
		port, err := factory.Open(path, opts)
		if err == nil {
			return NewLink(port, opts), nil
		}
		lastErr = err
		log.Printf("open %s attempt %d/%d failed: %v", path, attempt, opts.OpenRetries, err)
		if attempt < opts.OpenRetries {
			time.Sleep(opts.OpenRetryDelay)
		}
	}

	return nil, &ConnectError{Path: path, Attempts: opts.OpenRetries, Err: lastErr}
}

// NewLink wraps an already-open port. Used directly by tests and by Open.
func NewLink(port Porter, opts Options) *Link {
	return &Link{port: port, opts: opts}
}

// Write sends the full buffer to the port, reporting short writes as errors.
func (l *Link) Write(p []byte) error {
	if l.closed {
		return ErrClosed
	}
	n, err := l.port.Write(p)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(p) {
		return ErrWriteFailed
	}
	return nil
}

// ReadExact reads exactly n bytes, failing with ErrTimeout if the device
// stops producing data before the buffer fills. A zero timeout uses the
// link's configured default.
func (l *Link) ReadExact(n int, timeout time.Duration) ([]byte, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if timeout <= 0 {
		timeout = l.opts.ReadTimeout
	}
	if err := l.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	buf := make([]byte, n)
	filled := 0
	for filled < n {
		got, err := l.port.Read(buf[filled:])
		if err != nil {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		// The port signals deadline expiry with a zero-byte read.
		if got == 0 {
			return nil, ErrTimeout
		}
		filled += got
	}
	return buf, nil
}

// ReadAvailable accumulates whatever bytes arrive over the given window and
// returns them. It never fails on silence; an empty slice means the device
// produced nothing.
func (l *Link) ReadAvailable(window time.Duration) []byte {
	if l.closed {
		return nil
	}
	if err := l.port.SetReadTimeout(pollTimeout); err != nil {
		log.Printf("set poll timeout: %v", err)
		return nil
	}

	var out []byte
	buf := make([]byte, 1024)
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		got, err := l.port.Read(buf)
		if err != nil {
			break
		}
		if got > 0 {
			out = append(out, buf[:got]...)
		}
	}
	return out
}

// ResetInputBuffer discards stale bytes so a fresh exchange starts clean.
func (l *Link) ResetInputBuffer() error {
	if l.closed {
		return ErrClosed
	}
	return l.port.ResetInputBuffer()
}

// ReadTimeout returns the link's default exact-read deadline.
func (l *Link) ReadTimeout() time.Duration {
	return l.opts.ReadTimeout
}

// Close closes the underlying port. Safe to call more than once.
func (l *Link) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return l.port.Close()
}
