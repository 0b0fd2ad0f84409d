package tpi

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/vswr.report/internal/serialport"
)

// Client provides request/response command exchange with the analyzer over a
// serial link. Exchanges are strictly non-pipelined: one in flight at a time.
// Callers must serialize use externally; the Client itself is not guarded.
type Client struct {
	link *serialport.Link
}

// NewClient wraps an open link.
func NewClient(link *serialport.Link) *Client {
	return &Client{link: link}
}

// Send issues one command and returns the verified response body (opcode
// echo included). The response must echo the request opcode: an error-status
// response becomes *DeviceError, any other mismatch *OpcodeError.
func (c *Client) Send(op Opcode, payload []byte) ([]byte, error) {
	body, err := c.sendRaw(op, payload)
	if err != nil {
		return nil, err
	}

	got := bodyOpcode(body)
	if got == op {
		return body, nil
	}
	if got == OpErrorStatus {
		status := byte(0)
		if len(body) > 2 {
			status = body[2]
		}
		return nil, &DeviceError{Request: op, Status: status}
	}
	return nil, &OpcodeError{Want: op, Got: got}
}

// sendRaw issues a command without verifying the opcode echo. Used directly
// by the user-control probe, which inspects the echo itself.
func (c *Client) sendRaw(op Opcode, payload []byte) ([]byte, error) {
	if err := c.link.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}
	if err := c.link.Write(EncodeFrame(op, payload)); err != nil {
		return nil, err
	}
	return c.readResponse()
}

// readResponse scans the byte stream for the next valid frame. Marker
// misalignment and checksum failures are recovered by continuing the scan;
// timeouts propagate.
func (c *Client) readResponse() ([]byte, error) {
	timeout := c.link.ReadTimeout()
	for {
		if err := c.scanMarker(timeout); err != nil {
			return nil, err
		}

		lenBytes, err := c.link.ReadExact(2, timeout)
		if err != nil {
			return nil, fmt.Errorf("read frame length: %w", err)
		}
		bodyLen := int(lenBytes[0])<<8 | int(lenBytes[1])

		body, err := c.link.ReadExact(bodyLen, timeout)
		if err != nil {
			return nil, fmt.Errorf("read frame body: %w", err)
		}

		sum, err := c.link.ReadExact(1, timeout)
		if err != nil {
			return nil, fmt.Errorf("read frame checksum: %w", err)
		}

		if sum[0] != Checksum(lenBytes[0], lenBytes[1], body) {
			// Corrupted frame; resume scanning for the next one.
			continue
		}
		return body, nil
	}
}

// scanMarker consumes bytes until the AA 55 marker pair is seen.
func (c *Client) scanMarker(timeout time.Duration) error {
	for {
		b, err := c.link.ReadExact(1, timeout)
		if err != nil {
			return fmt.Errorf("scan frame marker: %w", err)
		}
		if b[0] != Marker0 {
			continue
		}
		b, err = c.link.ReadExact(1, timeout)
		if err != nil {
			return fmt.Errorf("scan frame marker: %w", err)
		}
		if b[0] == Marker1 {
			return nil
		}
	}
}

// EnableUserControl switches the analyzer out of front-panel mode.
// Idempotent: it probes with a read-only command first and returns
// immediately if the echo shows control is already enabled. Otherwise it
// sends the enable command and re-probes to confirm, failing with
// *ControlError if confirmation does not arrive.
func (c *Client) EnableUserControl() error {
	// A comm failure during the probe is treated as "not enabled" and the
	// enable is attempted anyway.
	if body, err := c.sendRaw(OpReadModel, nil); err == nil {
		switch bodyOpcode(body) {
		case OpReadModel:
			return nil
		case OpErrorStatus:
			if len(body) > 2 && body[2] != StatusControlDisabled {
				return &ControlError{Reason: fmt.Sprintf("unexpected probe status 0x%02X", body[2])}
			}
		}
	}

	body, err := c.sendRaw(OpEnableControl, nil)
	if err != nil {
		return &ControlError{Reason: fmt.Sprintf("enable command failed: %v", err)}
	}
	if bodyOpcode(body) != OpEnableControl {
		return &ControlError{Reason: fmt.Sprintf("enable command echoed %s", bodyOpcode(body))}
	}

	body, err = c.sendRaw(OpReadModel, nil)
	if err != nil || bodyOpcode(body) != OpReadModel {
		return &ControlError{Reason: "confirmation probe failed after enable"}
	}
	return nil
}

// ReadModelNumber returns the device model string.
func (c *Client) ReadModelNumber() (string, error) {
	return c.readString(OpReadModel)
}

// ReadSerialNumber returns the device serial string.
func (c *Client) ReadSerialNumber() (string, error) {
	return c.readString(OpReadSerial)
}

// ReadFirmwareVersion returns the firmware revision string.
func (c *Client) ReadFirmwareVersion() (string, error) {
	return c.readString(OpReadFirmware)
}

func (c *Client) readString(op Opcode) (string, error) {
	body, err := c.Send(op, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body[2:])), nil
}

// ReadFrequencyKHz reads the synthesizer's current frequency.
func (c *Client) ReadFrequencyKHz() (int, error) {
	body, err := c.Send(OpReadFrequency, nil)
	if err != nil {
		return 0, err
	}
	if len(body) < 6 {
		return 0, &FramingError{Reason: "frequency response too short"}
	}
	return int(binary.LittleEndian.Uint32(body[2:6])), nil
}

// SetFrequencyKHz tunes the synthesizer to the given frequency.
func (c *Client) SetFrequencyKHz(freqKHz int) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(freqKHz))
	_, err := c.Send(OpSetFrequency, payload)
	return err
}

// ReadRFOutputEnabled reports whether the RF output stage is on.
func (c *Client) ReadRFOutputEnabled() (bool, error) {
	body, err := c.Send(OpReadRFOutput, nil)
	if err != nil {
		return false, err
	}
	if len(body) < 3 {
		return false, &FramingError{Reason: "RF output response too short"}
	}
	return body[2] != 0, nil
}

// SetRFOutputEnabled switches the RF output stage.
func (c *Client) SetRFOutputEnabled(on bool) error {
	_, err := c.Send(OpSetRFOutput, []byte{boolByte(on)})
	return err
}

// SetDetectorEnabled switches the return-loss detector.
func (c *Client) SetDetectorEnabled(on bool) error {
	_, err := c.Send(OpSetDetector, []byte{boolByte(on)})
	return err
}

// RF power limits in dBm.
const (
	MinRFPowerDBm = -90
	MaxRFPowerDBm = 10
)

// SetRFPower sets the RF output level. The level is encoded on the wire as
// a signed byte.
func (c *Client) SetRFPower(dbm int) error {
	if dbm < MinRFPowerDBm || dbm > MaxRFPowerDBm {
		return fmt.Errorf("RF power %d dBm out of range (%d to %d)", dbm, MinRFPowerDBm, MaxRFPowerDBm)
	}
	_, err := c.Send(OpSetRFPower, []byte{byte(int8(dbm))})
	return err
}

// ReadADCAveraging reads the number of ADC conversions averaged per
// measurement.
func (c *Client) ReadADCAveraging() (int, error) {
	body, err := c.Send(OpReadADCAveraging, nil)
	if err != nil {
		return 0, err
	}
	if len(body) < 3 {
		return 0, &FramingError{Reason: "ADC averaging response too short"}
	}
	return int(body[2]), nil
}

// SetADCAveraging sets the ADC conversion averaging count, clamped by the
// device to 1-8.
func (c *Client) SetADCAveraging(n int) error {
	if n < 1 {
		n = 1
	} else if n > 8 {
		n = 8
	}
	_, err := c.Send(OpSetADCAveraging, []byte{byte(n)})
	return err
}

// SetSweepParameters pushes the parameter block to the device. Dwell time is
// validated; averages and packet size are clamped the way the device clamps
// them, so a following ReadSweepParameters returns exactly what was sent.
func (c *Client) SetSweepParameters(p SweepParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := c.Send(OpSetSweepParams, p.Clamped().marshalPayload())
	return err
}

// ReadSweepParameters reads the parameter block back from the device.
func (c *Client) ReadSweepParameters() (SweepParameters, error) {
	body, err := c.Send(OpReadSweepParams, nil)
	if err != nil {
		return SweepParameters{}, err
	}
	return unmarshalSweepParameters(body[2:])
}

// StartOptions controls the start-sweep command.
type StartOptions struct {
	// Continuous selects free-running sweeps instead of a single pass.
	Continuous bool

	// MaxMSBetweenPackets is the device's inter-packet watchdog. Zero
	// selects the 1000 ms default.
	MaxMSBetweenPackets int

	// AuxInput arms the sweep from the auxiliary trigger input.
	AuxInput bool
}

// StartSweep arms and starts the sweep engine.
func (c *Client) StartSweep(opts StartOptions) error {
	maxMS := opts.MaxMSBetweenPackets
	if maxMS <= 0 {
		maxMS = 1000
	}
	payload := []byte{
		1, // start
		boolByte(opts.Continuous),
		byte(maxMS), byte(maxMS >> 8),
		boolByte(opts.AuxInput),
	}
	_, err := c.Send(OpStartSweep, payload)
	return err
}

// CaptureRaw accumulates whatever sweep data bytes arrive over the given
// window. Used by the sweep controller's capture loop, not by command
// exchanges.
func (c *Client) CaptureRaw(window time.Duration) []byte {
	return c.link.ReadAvailable(window)
}

// Close releases the underlying serial link. Safe to call more than once.
func (c *Client) Close() error {
	return c.link.Close()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
