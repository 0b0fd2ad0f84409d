package tpi

import "fmt"

// Opcode is the two-byte command identifier at the head of a frame body.
// The high byte selects read (0x07) or set (0x08); the low byte selects the
// operation.
type Opcode uint16

// Opcodes consumed by the sweep and VSWR workflows.
const (
	OpEnableControl Opcode = 0x0801

	OpReadModel    Opcode = 0x0702
	OpReadSerial   Opcode = 0x0703
	OpReadFirmware Opcode = 0x0705

	OpReadFrequency Opcode = 0x0709
	OpSetFrequency  Opcode = 0x0809

	OpSetRFPower Opcode = 0x080A

	OpReadRFOutput Opcode = 0x070B
	OpSetRFOutput  Opcode = 0x080B

	OpSetDetector Opcode = 0x080C

	OpReadSweepParams Opcode = 0x073C
	OpSetSweepParams  Opcode = 0x083C

	OpStartSweep Opcode = 0x083D

	OpDataPacket Opcode = 0x073E
	OpStopNotice Opcode = 0x073F

	OpReadADCAveraging Opcode = 0x0741
	OpSetADCAveraging  Opcode = 0x0841

	// OpErrorStatus is the opcode of the device's rejection response. Its
	// one-byte payload carries a status code, 0x01 meaning user control is
	// not enabled.
	OpErrorStatus Opcode = 0x07FF
)

// StatusControlDisabled is the OpErrorStatus payload meaning the device is
// still in front-panel mode.
const StatusControlDisabled = 0x01

// Hi returns the high (read/set) opcode byte.
func (o Opcode) Hi() byte { return byte(o >> 8) }

// Lo returns the low (operation) opcode byte.
func (o Opcode) Lo() byte { return byte(o) }

func (o Opcode) String() string {
	return fmt.Sprintf("0x%02X%02X", o.Hi(), o.Lo())
}

// bodyOpcode extracts the opcode from a decoded frame body.
func bodyOpcode(body []byte) Opcode {
	if len(body) < 2 {
		return 0
	}
	return Opcode(uint16(body[0])<<8 | uint16(body[1]))
}
