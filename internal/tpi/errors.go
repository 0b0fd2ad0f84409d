package tpi

import "fmt"

// FramingError reports wire data that could not be aligned to a frame.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error: %s", e.Reason)
}

// ChecksumError reports a frame whose checksum byte does not match the
// computed value.
type ChecksumError struct {
	Expected byte
	Got      byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%02X, got 0x%02X", e.Expected, e.Got)
}

// OpcodeError reports a response that echoed a different opcode than the
// request.
type OpcodeError struct {
	Want Opcode
	Got  Opcode
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unexpected response opcode: sent %s, got %s", e.Want, e.Got)
}

// DeviceError reports a command the device rejected with a status body.
type DeviceError struct {
	Request Opcode
	Status  byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected %s: status 0x%02X", e.Request, e.Status)
}

// ControlError reports a failed user-control handshake.
type ControlError struct {
	Reason string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("user control handshake failed: %s", e.Reason)
}
