// Package sweep drives the analyzer through the sweep lifecycle: configure,
// run, teardown. A sweep capture arrives as a burst of data-packet frames;
// the controller reassembles the measurement payload across packets, watches
// for the stop sentinel, and decodes the result into measurement points.
package sweep

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/banshee-data/vswr.report/internal/config"
	"github.com/banshee-data/vswr.report/internal/serialport"
	"github.com/banshee-data/vswr.report/internal/tpi"
	"github.com/banshee-data/vswr.report/internal/vswr"
)

// Device is the command surface the controller needs from the analyzer.
// *tpi.Client implements it; tests supply scripted fakes.
type Device interface {
	EnableUserControl() error
	SetRFPower(dbm int) error
	SetSweepParameters(p tpi.SweepParameters) error
	ReadSweepParameters() (tpi.SweepParameters, error)
	SetDetectorEnabled(on bool) error
	SetRFOutputEnabled(on bool) error
	StartSweep(opts tpi.StartOptions) error
	CaptureRaw(window time.Duration) []byte
	Close() error
}

// State is the controller lifecycle position.
type State int

const (
	// Idle: no device session. Configure is the only valid transition.
	Idle State = iota
	// Configured: parameters pushed, detector and RF output on, device
	// settling. Run and Teardown are valid.
	Configured
	// Running: a sweep capture is draining. No other operation is valid
	// until it returns.
	Running
	// Faulted: a failure forced RF and detector off. Only Teardown is
	// valid.
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fixed scan profile for antenna acceptance sweeps.
const (
	// RFPowerDBm is the stimulus level for every acceptance sweep.
	RFPowerDBm = 0

	// AutoRF lets the device manage the output stage across points.
	AutoRF = true

	// PointsPerPacket is the capture packet size requested from the
	// device.
	PointsPerPacket = 40

	// AveragesPerPoint is the per-point averaging count.
	AveragesPerPoint = 8

	// CaptureWindow is the read-accumulation window per capture
	// iteration.
	CaptureWindow = 100 * time.Millisecond

	// CaptureIterations is the hard ceiling on capture iterations per
	// sweep. Reaching it is not an error: partial data is valid output.
	CaptureIterations = 60
)

// packetPreambleLen covers a data packet's framing up to the first
// measurement float: marker (2), length (2), opcode (2), point count (1),
// first step index (4).
const packetPreambleLen = 11

// Controller owns one analyzer session. Exactly one controller owns the
// device link at a time; callers must serialize use externally. There is no
// mid-sweep cancellation: a Run drains to its sentinel or iteration ceiling.
// Closing the link is the hard stop.
type Controller struct {
	dev    Device
	state  State
	params tpi.SweepParameters

	// Capture pacing, overridable in tests.
	captureWindow     time.Duration
	captureIterations int
}

// NewController wraps an open device session.
func NewController(dev Device) *Controller {
	return &Controller{
		dev:               dev,
		state:             Idle,
		captureWindow:     CaptureWindow,
		captureIterations: CaptureIterations,
	}
}

// Connect opens the serial link at path and returns a controller ready to
// configure.
func Connect(path string, opts serialport.Options) (*Controller, error) {
	link, err := serialport.Open(path, opts, serialport.NewRealFactory())
	if err != nil {
		return nil, err
	}
	return NewController(tpi.NewClient(link)), nil
}

// State reports the controller's lifecycle position.
func (c *Controller) State() State {
	return c.state
}

// Parameters returns the parameter block pushed during Configure.
func (c *Controller) Parameters() tpi.SweepParameters {
	return c.params
}

// Configure prepares the device for sweeps: user control, RF power, the
// parameter block (round-tripped for verification), then detector and RF
// output on. The emitters are switched on here rather than in Run so the
// device starts settling early. Any failure tears the session down — RF and
// detector off, link closed — before the error propagates, so a failed
// configure never leaves the instrument transmitting.
func (c *Controller) Configure(cfg config.TestParams) error {
	if c.state != Idle && c.state != Configured {
		return fmt.Errorf("configure invalid in state %s", c.state)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := c.configure(cfg); err != nil {
		c.state = Faulted
		if terr := c.Teardown(); terr != nil {
			log.Printf("teardown after failed configure: %v", terr)
		}
		return err
	}

	c.state = Configured
	return nil
}

func (c *Controller) configure(cfg config.TestParams) error {
	if err := c.dev.EnableUserControl(); err != nil {
		return err
	}
	if err := c.dev.SetRFPower(RFPowerDBm); err != nil {
		return fmt.Errorf("set RF power: %w", err)
	}

	numPoints, err := tpi.CalculateNumPoints(cfg.StartKHz, cfg.StopKHz, cfg.StepKHz)
	if err != nil {
		return err
	}
	params := tpi.SweepParameters{
		StartKHz:           cfg.StartKHz,
		StopKHz:            cfg.StopKHz,
		StepKHz:            cfg.StepKHz,
		DwellMS:            cfg.DwellMS,
		NumPoints:          numPoints,
		AutoRF:             AutoRF,
		MaxPointsPerPacket: PointsPerPacket,
		AveragesPerPoint:   AveragesPerPoint,
	}
	if err := c.dev.SetSweepParameters(params); err != nil {
		return fmt.Errorf("set sweep parameters: %w", err)
	}

	// Round-trip verification: the device must hold exactly what was
	// sent, modulo its own clamping.
	readBack, err := c.dev.ReadSweepParameters()
	if err != nil {
		return fmt.Errorf("read back sweep parameters: %w", err)
	}
	if readBack != params.Clamped() {
		return fmt.Errorf("sweep parameter verification failed: sent %+v, device holds %+v",
			params.Clamped(), readBack)
	}
	c.params = readBack

	if err := c.dev.SetDetectorEnabled(true); err != nil {
		return fmt.Errorf("enable detector: %w", err)
	}
	if err := c.dev.SetRFOutputEnabled(true); err != nil {
		return fmt.Errorf("enable RF output: %w", err)
	}
	return nil
}

// Run performs one sweep and returns the measured points in frequency
// order. The capture loop reads whatever bytes arrive over short fixed
// windows, strips each data packet's preamble and checksum into an
// accumulation buffer, and stops on the sweep-end sentinel or after the
// iteration ceiling. The buffer lives only within this call. Failures force
// teardown before the error surfaces.
func (c *Controller) Run() ([]vswr.Point, error) {
	if c.state != Configured {
		return nil, fmt.Errorf("run invalid in state %s: configure first", c.state)
	}

	c.state = Running
	points, err := c.run()
	if err != nil {
		c.state = Faulted
		if terr := c.Teardown(); terr != nil {
			log.Printf("teardown after failed run: %v", terr)
		}
		return nil, err
	}

	c.state = Configured
	return points, nil
}

func (c *Controller) run() ([]vswr.Point, error) {
	if err := c.dev.StartSweep(tpi.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start sweep: %w", err)
	}

	detector := NewEndDetector()
	var accum []byte
	for i := 0; i < c.captureIterations; i++ {
		chunk := c.dev.CaptureRaw(c.captureWindow)

		if len(chunk) > packetPreambleLen+1 {
			// Strip the packet preamble and the trailing checksum
			// byte; what remains is measurement payload.
			accum = append(accum, chunk[packetPreambleLen:len(chunk)-1]...)
		}

		if detector.ChunkEndsSweep(chunk) {
			accum = detector.TrimSentinel(accum)
			break
		}
	}
	// Falling out of the loop at the ceiling is a valid partial capture.

	return decodeCapture(accum, c.params.StartKHz, c.params.StepKHz), nil
}

// decodeCapture interprets the accumulated payload as consecutive
// little-endian float32 readings, pairing the i-th value with
// start + i×step. A trailing group shorter than four bytes is discarded.
func decodeCapture(accum []byte, startKHz, stepKHz int) []vswr.Point {
	points := make([]vswr.Point, 0, len(accum)/4)
	for i := 0; i+4 <= len(accum); i += 4 {
		bits := binary.LittleEndian.Uint32(accum[i : i+4])
		points = append(points, vswr.Point{
			FreqKHz: startKHz + (i/4)*stepKHz,
			Value:   float64(math.Float32frombits(bits)),
		})
	}
	return points
}

// Teardown returns the instrument to a safe state: RF output off, detector
// off, link closed. The switch-offs are best effort — a failure there never
// prevents the link from closing. Idempotent: calling it on an idle or
// already-torn-down controller is a no-op.
func (c *Controller) Teardown() error {
	if c.dev == nil || c.state == Idle {
		c.state = Idle
		return nil
	}

	if err := c.dev.SetRFOutputEnabled(false); err != nil {
		log.Printf("teardown: RF output off: %v", err)
	}
	if err := c.dev.SetDetectorEnabled(false); err != nil {
		log.Printf("teardown: detector off: %v", err)
	}

	err := c.dev.Close()
	c.state = Idle
	if err != nil {
		return fmt.Errorf("close link: %w", err)
	}
	return nil
}
