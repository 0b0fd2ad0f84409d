package tpi

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeFrameKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		op      Opcode
		payload []byte
		want    []byte
	}{
		{
			name: "enable user control",
			op:   OpEnableControl,
			want: []byte{0xAA, 0x55, 0x00, 0x02, 0x08, 0x01, 0xF4},
		},
		{
			name: "read model",
			op:   OpReadModel,
			want: []byte{0xAA, 0x55, 0x00, 0x02, 0x07, 0x02, 0xF4},
		},
		{
			name: "stop notification matches the sweep-end sentinel",
			op:   OpStopNotice,
			want: []byte{0xAA, 0x55, 0x00, 0x02, 0x07, 0x3F, 0xB7},
		},
		{
			name:    "set RF output on",
			op:      OpSetRFOutput,
			payload: []byte{0x01},
			want:    []byte{0xAA, 0x55, 0x00, 0x03, 0x08, 0x0B, 0x01, 0xE8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeFrame(tt.op, tt.payload)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeFrame = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		{0x01, 0x02, 0x03, 0x04},
		bytes.Repeat([]byte{0xFF}, 200),
	}
	for _, payload := range payloads {
		frame := EncodeFrame(OpSetSweepParams, payload)
		body, rest, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("DecodeFrame(% X): %v", frame, err)
		}
		if len(rest) != 0 {
			t.Errorf("unexpected trailing bytes: % X", rest)
		}
		if bodyOpcode(body) != OpSetSweepParams {
			t.Errorf("opcode = %s, want %s", bodyOpcode(body), OpSetSweepParams)
		}
		if !bytes.Equal(body[2:], payload) {
			t.Errorf("payload = % X, want % X", body[2:], payload)
		}
	}
}

func TestDecodeFrameCorruptedBodyByte(t *testing.T) {
	frame := EncodeFrame(OpSetFrequency, []byte{0x10, 0x20, 0x30, 0x40})

	// Flipping any single body byte must surface as a checksum mismatch.
	for i := 4; i < len(frame)-1; i++ {
		corrupted := append([]byte(nil), frame...)
		corrupted[i] ^= 0x01

		_, _, err := DecodeFrame(corrupted)
		var checksumErr *ChecksumError
		if !errors.As(err, &checksumErr) {
			t.Errorf("byte %d: expected *ChecksumError, got %v", i, err)
		}
	}
}

func TestDecodeFrameResynchronizes(t *testing.T) {
	frame := EncodeFrame(OpReadModel, nil)
	noisy := append([]byte{0x00, 0xAA, 0x13, 0x37}, frame...)

	body, _, err := DecodeFrame(noisy)
	if err != nil {
		t.Fatalf("DecodeFrame with leading noise: %v", err)
	}
	if bodyOpcode(body) != OpReadModel {
		t.Errorf("opcode = %s, want %s", bodyOpcode(body), OpReadModel)
	}
}

func TestDecodeFrameFramingErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"no marker", []byte{0x01, 0x02, 0x03}},
		{"truncated header", []byte{0xAA, 0x55, 0x00}},
		{"truncated body", []byte{0xAA, 0x55, 0x00, 0x10, 0x07}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeFrame(tt.buf)
			var framingErr *FramingError
			if !errors.As(err, &framingErr) {
				t.Errorf("expected *FramingError, got %v", err)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	// checksum = (0xFF − (len_hi + len_lo + Σbody)) & 0xFF
	if got := Checksum(0x00, 0x02, []byte{0x08, 0x01}); got != 0xF4 {
		t.Errorf("Checksum = 0x%02X, want 0xF4", got)
	}
	// Sum overflow wraps at the byte boundary before subtraction.
	if got := Checksum(0xFF, 0xFF, []byte{0xFF}); got != 0x02 {
		t.Errorf("Checksum = 0x%02X, want 0x02", got)
	}
}
