package serialport

import (
	"fmt"
	"time"
)

// Options describes the serial connection parameters used when opening the
// analyzer port. The analyzer runs its UART fast and flow-controlled, so the
// defaults differ from typical instrument links.
type Options struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`

	// RTSCTS asserts hardware flow control lines on open.
	RTSCTS bool `json:"rtscts"`

	// ReadTimeout is the default deadline for exact-length reads.
	ReadTimeout time.Duration `json:"read_timeout"`

	// OpenRetries is the number of open attempts before giving up.
	OpenRetries int `json:"open_retries"`

	// OpenRetryDelay is the pause between open attempts.
	OpenRetryDelay time.Duration `json:"open_retry_delay"`
}

// DefaultOptions returns the connection parameters for the return-loss
// analyzer: 3 Mbaud, 8 data bits, no parity, 1 stop bit, RTS/CTS on.
func DefaultOptions() Options {
	return Options{
		BaudRate:       3_000_000,
		DataBits:       8,
		StopBits:       1,
		Parity:         "N",
		RTSCTS:         true,
		ReadTimeout:    2 * time.Second,
		OpenRetries:    3,
		OpenRetryDelay: 2 * time.Second,
	}
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 3_000_000
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch opts.Parity {
	case "":
		opts.Parity = "N"
	case "N", "E", "O":
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 2 * time.Second
	}
	if opts.OpenRetries <= 0 {
		opts.OpenRetries = 3
	}
	if opts.OpenRetryDelay < 0 {
		return opts, fmt.Errorf("invalid open retry delay %v: must not be negative", opts.OpenRetryDelay)
	}
	if opts.OpenRetryDelay == 0 {
		opts.OpenRetryDelay = 2 * time.Second
	}

	return opts, nil
}
