package serialport

import (
	"go.bug.st/serial"
)

// realFactory opens ports through go.bug.st/serial.
type realFactory struct{}

// NewRealFactory returns the factory used against actual hardware.
func NewRealFactory() PortFactory {
	return realFactory{}
}

// Open opens a real serial port at the given path using the provided options.
func (realFactory) Open(path string, opts Options) (Porter, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.StopBits(opts.StopBits),
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}

	if opts.RTSCTS {
		// go.bug.st/serial has no RTS/CTS mode flag; assert the modem
		// lines on open and let the adapter gate the stream.
		mode.InitialStatusBits = &serial.ModemOutputBits{RTS: true, DTR: true}
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}
