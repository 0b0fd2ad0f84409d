package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleParams = `{
  "PatchAntenna-Final": {
    "start_khz": 1606250,
    "stop_khz": 1636250,
    "step_khz": 600,
    "dwell_ms": 20,
    "vswr_start_khz": 1610000,
    "vswr_mid_khz": 1621250,
    "vswr_stop_khz": 1632500,
    "vswr_max": 2.0
  },
  "PatchAntenna-BadDwell": {
    "start_khz": 1606250,
    "stop_khz": 1636250,
    "step_khz": 600,
    "dwell_ms": 1,
    "vswr_start_khz": 1610000,
    "vswr_mid_khz": 1621250,
    "vswr_stop_khz": 1632500,
    "vswr_max": 2.0
  }
}`

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write params file: %v", err)
	}
	return path
}

func TestLoadFor(t *testing.T) {
	path := writeParams(t, sampleParams)

	p, err := LoadFor(path, "PatchAntenna-Final")
	if err != nil {
		t.Fatalf("LoadFor: %v", err)
	}
	if p.StartKHz != 1_606_250 || p.StopKHz != 1_636_250 || p.StepKHz != 600 {
		t.Errorf("sweep range = %d-%d step %d, want 1606250-1636250 step 600",
			p.StartKHz, p.StopKHz, p.StepKHz)
	}
	if p.VSWRMax != 2.0 {
		t.Errorf("VSWRMax = %g, want 2.0", p.VSWRMax)
	}
}

func TestLoadForUnknownType(t *testing.T) {
	path := writeParams(t, sampleParams)

	if _, err := LoadFor(path, "Whip-Final"); err == nil {
		t.Error("expected error for unknown test type")
	}
}

func TestLoadForValidatesEntry(t *testing.T) {
	path := writeParams(t, sampleParams)

	if _, err := LoadFor(path, "PatchAntenna-BadDwell"); err == nil {
		t.Error("expected validation error for out-of-range dwell")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeParams(t, "{not json")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	valid := TestParams{
		StartKHz: 1_606_250, StopKHz: 1_636_250, StepKHz: 600, DwellMS: 20,
		VSWRStartKHz: 1_610_000, VSWRMidKHz: 1_621_250, VSWRStopKHz: 1_632_500,
		VSWRMax: 2.0,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*TestParams)
	}{
		{"zero step", func(p *TestParams) { p.StepKHz = 0 }},
		{"stop below start", func(p *TestParams) { p.StopKHz = p.StartKHz - 1 }},
		{"span not multiple of step", func(p *TestParams) { p.StopKHz = p.StartKHz + 1001; p.StepKHz = 2 }},
		{"dwell too short", func(p *TestParams) { p.DwellMS = 1 }},
		{"dwell too long", func(p *TestParams) { p.DwellMS = 501 }},
		{"limit at unity", func(p *TestParams) { p.VSWRMax = 1.0 }},
		{"window below sweep", func(p *TestParams) { p.VSWRStartKHz = p.StartKHz - 100 }},
		{"window above sweep", func(p *TestParams) { p.VSWRStopKHz = p.StopKHz + 100 }},
		{"inverted window", func(p *TestParams) { p.VSWRStartKHz, p.VSWRStopKHz = p.VSWRStopKHz, p.VSWRStartKHz }},
		{"mid outside window", func(p *TestParams) { p.VSWRMidKHz = p.VSWRStopKHz + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
