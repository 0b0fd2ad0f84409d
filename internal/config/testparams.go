// Package config loads per-test-type sweep and acceptance parameters. The
// parameter file is a JSON object keyed by the combined device-test type
// (for example "PatchAntenna-Final"), each entry carrying the sweep range
// and the VSWR acceptance window for that test.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TestParams is the configuration record the core accepts from any caller:
// the sweep definition plus the VSWR acceptance criteria.
type TestParams struct {
	StartKHz int `json:"start_khz"`
	StopKHz  int `json:"stop_khz"`
	StepKHz  int `json:"step_khz"`
	DwellMS  int `json:"dwell_ms"`

	VSWRStartKHz int     `json:"vswr_start_khz"`
	VSWRMidKHz   int     `json:"vswr_mid_khz"`
	VSWRStopKHz  int     `json:"vswr_stop_khz"`
	VSWRMax      float64 `json:"vswr_max"`
}

// Validate checks range ordering and field sanity. Device-enforced limits
// (dwell bounds, exact point counts) are re-checked at the protocol layer;
// this catches configuration mistakes before a port is ever opened.
func (p TestParams) Validate() error {
	if p.StepKHz <= 0 {
		return fmt.Errorf("step_khz must be positive, got %d", p.StepKHz)
	}
	if p.StopKHz <= p.StartKHz {
		return fmt.Errorf("stop_khz %d must be above start_khz %d", p.StopKHz, p.StartKHz)
	}
	if (p.StopKHz-p.StartKHz)%p.StepKHz != 0 {
		return fmt.Errorf("sweep span %d kHz is not a multiple of step %d kHz",
			p.StopKHz-p.StartKHz, p.StepKHz)
	}
	if p.DwellMS < 2 || p.DwellMS > 500 {
		return fmt.Errorf("dwell_ms must be 2-500, got %d", p.DwellMS)
	}
	if p.VSWRMax <= 1.0 {
		return fmt.Errorf("vswr_max must be above 1.0, got %g", p.VSWRMax)
	}
	if p.VSWRStartKHz < p.StartKHz || p.VSWRStopKHz > p.StopKHz {
		return fmt.Errorf("VSWR window %d-%d kHz extends beyond sweep range %d-%d kHz",
			p.VSWRStartKHz, p.VSWRStopKHz, p.StartKHz, p.StopKHz)
	}
	if p.VSWRStartKHz >= p.VSWRStopKHz {
		return fmt.Errorf("vswr_start_khz %d must be below vswr_stop_khz %d", p.VSWRStartKHz, p.VSWRStopKHz)
	}
	if p.VSWRMidKHz < p.VSWRStartKHz || p.VSWRMidKHz > p.VSWRStopKHz {
		return fmt.Errorf("vswr_mid_khz %d must lie within %d-%d kHz",
			p.VSWRMidKHz, p.VSWRStartKHz, p.VSWRStopKHz)
	}
	return nil
}

// Load reads the full parameter file.
func Load(path string) (map[string]TestParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params file: %w", err)
	}
	var params map[string]TestParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parse params file %s: %w", path, err)
	}
	return params, nil
}

// LoadFor reads the parameter file and returns the validated entry for the
// given test type.
func LoadFor(path, testType string) (TestParams, error) {
	params, err := Load(path)
	if err != nil {
		return TestParams{}, err
	}
	p, ok := params[testType]
	if !ok {
		return TestParams{}, fmt.Errorf("no configuration for test type %q in %s", testType, path)
	}
	if err := p.Validate(); err != nil {
		return TestParams{}, fmt.Errorf("test type %q: %w", testType, err)
	}
	return p, nil
}
