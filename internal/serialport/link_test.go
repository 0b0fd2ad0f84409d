package serialport

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func fastOptions() Options {
	return Options{
		ReadTimeout:    50 * time.Millisecond,
		OpenRetries:    3,
		OpenRetryDelay: time.Millisecond,
	}
}

func TestOpenRetriesTransientFailures(t *testing.T) {
	port := NewTestablePort()
	factory := NewMockFactory(port)
	factory.Errors = []error{
		errors.New("device busy"),
		errors.New("device busy"),
	}

	link, err := Open("/dev/ttyUSB0", fastOptions(), factory)
	if err != nil {
		t.Fatalf("Open failed after transient errors: %v", err)
	}
	defer link.Close()

	if got := len(factory.OpenCalls); got != 3 {
		t.Errorf("expected 3 open attempts, got %d", got)
	}
}

func TestOpenExhaustsRetries(t *testing.T) {
	factory := NewMockFactory(nil)
	factory.Errors = []error{
		errors.New("no such device"),
		errors.New("no such device"),
		errors.New("no such device"),
	}

	_, err := Open("/dev/ttyUSB9", fastOptions(), factory)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectError, got %T: %v", err, err)
	}
	if connErr.Attempts != 3 {
		t.Errorf("ConnectError.Attempts = %d, want 3", connErr.Attempts)
	}
	if connErr.Path != "/dev/ttyUSB9" {
		t.Errorf("ConnectError.Path = %q, want /dev/ttyUSB9", connErr.Path)
	}
}

func TestReadExact(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte{0xAA, 0x55, 0x00, 0x02})
	link := NewLink(port, fastOptions())

	got, err := link.ReadExact(4, 0)
	if err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if !bytes.Equal(got, []byte{0xAA, 0x55, 0x00, 0x02}) {
		t.Errorf("ReadExact = % X", got)
	}
}

func TestReadExactTimeout(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte{0xAA})
	link := NewLink(port, fastOptions())

	_, err := link.ReadExact(4, 0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestReadAvailableAccumulates(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte{1, 2, 3, 4, 5})
	link := NewLink(port, fastOptions())

	got := link.ReadAvailable(5 * time.Millisecond)
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("ReadAvailable = % X, want 01 02 03 04 05", got)
	}
}

func TestReadAvailableEmptyOnSilence(t *testing.T) {
	port := NewTestablePort()
	link := NewLink(port, fastOptions())

	if got := link.ReadAvailable(2 * time.Millisecond); len(got) != 0 {
		t.Errorf("ReadAvailable on silent port = % X, want empty", got)
	}
}

func TestWriteShortWrite(t *testing.T) {
	port := NewTestablePort()
	port.ShortWrite = 2
	link := NewLink(port, fastOptions())

	err := link.Write([]byte{1, 2, 3, 4})
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	port := NewTestablePort()
	link := NewLink(port, fastOptions())

	if err := link.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := link.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := link.Write([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
	if _, err := link.ReadExact(1, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadExact after Close = %v, want ErrClosed", err)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	opts, err := Options{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 3_000_000 {
		t.Errorf("BaudRate = %d, want 3000000", opts.BaudRate)
	}
	if opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("framing defaults = %d%s%d, want 8N1", opts.DataBits, opts.Parity, opts.StopBits)
	}
}

func TestNormalizeRejectsBadFraming(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"data bits too low", Options{DataBits: 4}},
		{"data bits too high", Options{DataBits: 9}},
		{"bad stop bits", Options{StopBits: 3}},
		{"bad parity", Options{Parity: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Normalize(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
