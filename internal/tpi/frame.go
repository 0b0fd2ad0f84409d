// Package tpi implements the analyzer's checksum-framed binary protocol and
// the request/response command exchange built on top of it.
//
// Frame layout on the wire:
//
//	[0xAA][0x55][LEN_H][LEN_L][BODY...][CHECKSUM]
//
// where BODY is the two opcode bytes followed by the payload, LEN is the
// big-endian body length, and CHECKSUM = (0xFF − (LEN_H+LEN_L+ΣBODY)) & 0xFF.
// Payload fields are little-endian; only the length field is big-endian.
package tpi

import (
	"bytes"
)

// Frame marker bytes.
const (
	Marker0 = 0xAA
	Marker1 = 0x55
)

// frameOverhead is the non-body byte count: two markers, two length bytes,
// one checksum.
const frameOverhead = 5

var marker = []byte{Marker0, Marker1}

// Checksum computes the frame checksum over the two length bytes and the
// body.
func Checksum(lenHi, lenLo byte, body []byte) byte {
	sum := int(lenHi) + int(lenLo)
	for _, b := range body {
		sum += int(b)
	}
	return byte((0xFF - (sum & 0xFF)) & 0xFF)
}

// EncodeFrame builds a complete wire frame for the given opcode and payload.
func EncodeFrame(op Opcode, payload []byte) []byte {
	bodyLen := 2 + len(payload)
	frame := make([]byte, 0, frameOverhead+bodyLen)

	lenHi := byte(bodyLen >> 8)
	lenLo := byte(bodyLen)

	frame = append(frame, Marker0, Marker1, lenHi, lenLo)
	frame = append(frame, op.Hi(), op.Lo())
	frame = append(frame, payload...)

	body := frame[4:]
	frame = append(frame, Checksum(lenHi, lenLo, body))
	return frame
}

// DecodeFrame extracts the first complete frame from buf, returning its body
// and any bytes following the frame. Bytes before the first valid AA 55
// marker are skipped so that transient line noise does not poison the stream.
// A buffer with no marker or a truncated frame fails with *FramingError; a
// sum mismatch fails with *ChecksumError.
func DecodeFrame(buf []byte) (body []byte, rest []byte, err error) {
	start := bytes.Index(buf, marker)
	if start < 0 {
		return nil, nil, &FramingError{Reason: "no frame marker found"}
	}
	buf = buf[start:]

	if len(buf) < 4 {
		return nil, nil, &FramingError{Reason: "truncated frame header"}
	}
	lenHi, lenLo := buf[2], buf[3]
	bodyLen := int(lenHi)<<8 | int(lenLo)

	end := 4 + bodyLen + 1
	if len(buf) < end {
		return nil, nil, &FramingError{Reason: "truncated frame body"}
	}

	body = buf[4 : 4+bodyLen]
	want := Checksum(lenHi, lenLo, body)
	got := buf[4+bodyLen]
	if got != want {
		return nil, nil, &ChecksumError{Expected: want, Got: got}
	}

	return body, buf[end:], nil
}
