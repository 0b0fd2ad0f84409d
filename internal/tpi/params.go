package tpi

import (
	"encoding/binary"
	"fmt"
)

// Sweep parameter limits enforced by the device.
const (
	MinDwellMS         = 2
	MaxDwellMS         = 500
	MinAveragesPerPt   = 1
	MaxAveragesPerPt   = 10
	MaxPointsPerPacket = 50
)

// sweepParamsLen is the byte length of the parameter payload: three u32
// frequencies, a u16 dwell, a u32 point count, and three single-byte fields.
const sweepParamsLen = 4 + 4 + 4 + 2 + 4 + 1 + 1 + 1

// SweepParameters is the fixed parameter block round-tripped to the device
// before a sweep. All frequencies are in kHz.
type SweepParameters struct {
	StartKHz  int
	StopKHz   int
	StepKHz   int
	DwellMS   int
	NumPoints int

	AutoRF             bool
	MaxPointsPerPacket int
	AveragesPerPoint   int
}

// CalculateNumPoints derives the point count for a sweep. The span must
// divide evenly by the step: (stop−start)/step + 1 is required to be an
// exact integer.
func CalculateNumPoints(startKHz, stopKHz, stepKHz int) (int, error) {
	if stepKHz <= 0 {
		return 0, fmt.Errorf("step must be positive, got %d kHz", stepKHz)
	}
	if stopKHz <= startKHz {
		return 0, fmt.Errorf("stop frequency %d kHz must be above start %d kHz", stopKHz, startKHz)
	}
	span := stopKHz - startKHz
	if span%stepKHz != 0 {
		return 0, fmt.Errorf("number of points (%d + %d/%d) must be an integer; adjust frequency parameters",
			span/stepKHz+1, span%stepKHz, stepKHz)
	}
	return span/stepKHz + 1, nil
}

// Clamped returns a copy with the device-side clamps applied: averages
// forced into [1, 10] and packet size capped at 50 points.
func (p SweepParameters) Clamped() SweepParameters {
	out := p
	if out.AveragesPerPoint < MinAveragesPerPt {
		out.AveragesPerPoint = MinAveragesPerPt
	} else if out.AveragesPerPoint > MaxAveragesPerPt {
		out.AveragesPerPoint = MaxAveragesPerPt
	}
	if out.MaxPointsPerPacket > MaxPointsPerPacket {
		out.MaxPointsPerPacket = MaxPointsPerPacket
	}
	return out
}

// Validate rejects parameters the device would refuse outright. Clampable
// fields are not errors; they are normalized by Clamped.
func (p SweepParameters) Validate() error {
	if p.DwellMS < MinDwellMS || p.DwellMS > MaxDwellMS {
		return fmt.Errorf("dwell time must be %d-%d ms, got %d", MinDwellMS, MaxDwellMS, p.DwellMS)
	}
	if _, err := CalculateNumPoints(p.StartKHz, p.StopKHz, p.StepKHz); err != nil {
		return err
	}
	return nil
}

// marshalPayload encodes the parameter block in the device's fixed
// little-endian layout.
func (p SweepParameters) marshalPayload() []byte {
	out := make([]byte, sweepParamsLen)
	binary.LittleEndian.PutUint32(out[0:4], uint32(p.StartKHz))
	binary.LittleEndian.PutUint32(out[4:8], uint32(p.StopKHz))
	binary.LittleEndian.PutUint32(out[8:12], uint32(p.StepKHz))
	binary.LittleEndian.PutUint16(out[12:14], uint16(p.DwellMS))
	binary.LittleEndian.PutUint32(out[14:18], uint32(p.NumPoints))
	if p.AutoRF {
		out[18] = 1
	}
	out[19] = byte(p.MaxPointsPerPacket)
	out[20] = byte(p.AveragesPerPoint)
	return out
}

// unmarshalSweepParameters parses the mirrored layout from a read-parameters
// response payload.
func unmarshalSweepParameters(payload []byte) (SweepParameters, error) {
	if len(payload) < sweepParamsLen {
		return SweepParameters{}, fmt.Errorf("sweep parameter payload too short: %d bytes, need %d",
			len(payload), sweepParamsLen)
	}
	return SweepParameters{
		StartKHz:           int(binary.LittleEndian.Uint32(payload[0:4])),
		StopKHz:            int(binary.LittleEndian.Uint32(payload[4:8])),
		StepKHz:            int(binary.LittleEndian.Uint32(payload[8:12])),
		DwellMS:            int(binary.LittleEndian.Uint16(payload[12:14])),
		NumPoints:          int(binary.LittleEndian.Uint32(payload[14:18])),
		AutoRF:             payload[18] != 0,
		MaxPointsPerPacket: int(payload[19]),
		AveragesPerPoint:   int(payload[20]),
	}, nil
}
