package sweep

import "bytes"

// Sentinel is the complete stop-notification frame the analyzer emits when a
// sweep finishes: marker, two-byte length, stop opcode, checksum.
var Sentinel = []byte{0xAA, 0x55, 0x00, 0x02, 0x07, 0x3F, 0xB7}

// EndDetector decides when a capture stream has terminated. Detection is
// windowed per chunk: only the trailing sentinel-length bytes of each read
// chunk are inspected, never the accumulated stream. A sentinel split across
// two chunks is therefore not detected and the capture instead drains to its
// iteration ceiling — this matches the device's observed framing, where the
// stop notification arrives as the tail of a read burst.
type EndDetector struct {
	pattern []byte
}

// NewEndDetector returns a detector for the sweep stop notification.
func NewEndDetector() *EndDetector {
	return &EndDetector{pattern: Sentinel}
}

// ChunkEndsSweep reports whether the chunk's trailing bytes are the stop
// notification.
func (d *EndDetector) ChunkEndsSweep(chunk []byte) bool {
	if len(chunk) < len(d.pattern) {
		return false
	}
	return bytes.Equal(chunk[len(chunk)-len(d.pattern):], d.pattern)
}

// TrimSentinel drops a trailing sentinel-length run from the accumulation
// buffer, if the buffer is long enough to hold one. Called once the detector
// fires, since the final chunk's sentinel bytes may have been appended to
// the accumulator along with the data that preceded them.
func (d *EndDetector) TrimSentinel(accum []byte) []byte {
	if len(accum) >= len(d.pattern) {
		return accum[:len(accum)-len(d.pattern)]
	}
	return accum
}
