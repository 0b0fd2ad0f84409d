// Command vswr-report runs an antenna acceptance test against a
// serial-connected return-loss analyzer: it captures a no-antenna baseline,
// sweeps the antenna under test, converts the corrected curve to VSWR, and
// evaluates it against the configured acceptance window.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/banshee-data/vswr.report/internal/config"
	"github.com/banshee-data/vswr.report/internal/serialport"
	"github.com/banshee-data/vswr.report/internal/sweep"
	"github.com/banshee-data/vswr.report/internal/version"
	"github.com/banshee-data/vswr.report/internal/vswr"
)

// requiredPasses is how many consecutive passing scans end the session with
// an accept verdict.
const requiredPasses = 5

func main() {
	var (
		portPath      = flag.String("port", "/dev/ttyUSB0", "serial port of the analyzer")
		paramsPath    = flag.String("params", "params.json", "JSON file of per-test-type parameters")
		testType      = flag.String("type", "", "test type key in the params file")
		baselineCount = flag.Int("baselines", 10, "number of baseline captures")
		maxScans      = flag.Int("scans", 10, "maximum number of antenna scans")
		interpFactor  = flag.Int("interpolation", 3, "points inserted between measured pairs")
		method        = flag.String("method", "cubic", "interpolation method (cubic or none)")
		showVersion   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *testType == "" {
		log.Fatal("missing required -type flag")
	}

	params, err := config.LoadFor(*paramsPath, *testType)
	if err != nil {
		log.Fatalf("load test parameters: %v", err)
	}

	session := uuid.New()
	log.Printf("vswr-report %s, session %s: test type %q, sweep %d-%d kHz step %d",
		version.String(), session, *testType, params.StartKHz, params.StopKHz, params.StepKHz)

	ctrl, err := sweep.Connect(*portPath, serialport.DefaultOptions())
	if err != nil {
		log.Fatalf("connect to analyzer: %v", err)
	}
	defer func() {
		if err := ctrl.Teardown(); err != nil {
			log.Printf("teardown: %v", err)
		}
	}()

	if err := ctrl.Configure(params); err != nil {
		log.Fatalf("configure analyzer: %v", err)
	}

	stdin := bufio.NewReader(os.Stdin)
	waitForEnter(stdin, "Disconnect antenna and press Enter to capture baselines")

	baseline, err := captureBaseline(ctrl, *baselineCount)
	if err != nil {
		log.Fatalf("capture baseline: %v", err)
	}

	waitForEnter(stdin, "Connect antenna and press Enter to begin scanning")

	passed, err := runAcceptance(ctrl, params, baseline, *maxScans, *interpFactor, *method)
	if err != nil {
		log.Fatalf("acceptance run: %v", err)
	}

	if passed {
		log.Printf("session %s: PASS (%d consecutive passing scans)", session, requiredPasses)
		return
	}
	log.Printf("session %s: FAIL after %d scans", session, *maxScans)
	if err := ctrl.Teardown(); err != nil {
		log.Printf("teardown: %v", err)
	}
	os.Exit(1)
}

// captureBaseline performs repeated no-antenna sweeps and keeps the one with
// the highest mean level as the reference.
func captureBaseline(ctrl *sweep.Controller, count int) ([]vswr.Point, error) {
	log.Printf("capturing %d baselines...", count)
	captures := make([][]vswr.Point, 0, count)
	for i := 0; i < count; i++ {
		capture, err := ctrl.Run()
		if err != nil {
			return nil, fmt.Errorf("baseline sweep %d/%d: %w", i+1, count, err)
		}
		log.Printf("baseline %d/%d: mean %.2f dBm", i+1, count, vswr.Mean(capture))
		captures = append(captures, capture)
	}

	baseline, err := vswr.SelectBaseline(captures)
	if err != nil {
		return nil, err
	}
	log.Printf("selected baseline with mean %.2f dBm", vswr.Mean(baseline))
	return baseline, nil
}

// runAcceptance scans the antenna repeatedly, evaluating each corrected VSWR
// curve against the acceptance window, until the required number of
// consecutive passes accumulates or the scan budget runs out.
func runAcceptance(ctrl *sweep.Controller, params config.TestParams, baseline []vswr.Point,
	maxScans, interpFactor int, method string) (bool, error) {

	var lowest []vswr.Point
	consecutive := 0

	for i := 0; i < maxScans; i++ {
		reflected, err := ctrl.Run()
		if err != nil {
			return false, fmt.Errorf("scan %d/%d: %w", i+1, maxScans, err)
		}

		var lowestMean float64
		lowest, lowestMean = vswr.FindLowestReflected(reflected, lowest)

		corrected := vswr.SubtractBaseline(reflected, baseline)
		curve := vswr.ProcessVSWR(corrected)

		curve, err = vswr.Interpolate(curve, interpFactor, method)
		if err != nil {
			return false, fmt.Errorf("interpolate scan %d: %w", i+1, err)
		}
		curve, err = vswr.InsertCriterionPoints(curve,
			params.VSWRStartKHz, params.VSWRMidKHz, params.VSWRStopKHz)
		if err != nil {
			return false, fmt.Errorf("insert criterion points: %w", err)
		}

		pass, err := vswr.EvaluateRange(curve, params.VSWRStartKHz, params.VSWRStopKHz, params.VSWRMax)
		if err != nil {
			return false, fmt.Errorf("evaluate scan %d: %w", i+1, err)
		}

		if pass {
			consecutive++
			log.Printf("scan %d/%d: pass (%d consecutive, lowest mean %.2f dBm)",
				i+1, maxScans, consecutive, lowestMean)
			if consecutive >= requiredPasses {
				return true, nil
			}
		} else {
			consecutive = 0
			log.Printf("scan %d/%d: VSWR limit %.2f exceeded in %d-%d kHz",
				i+1, maxScans, params.VSWRMax, params.VSWRStartKHz, params.VSWRStopKHz)
		}
	}
	return false, nil
}

func waitForEnter(r *bufio.Reader, prompt string) {
	fmt.Printf("%s: ", prompt)
	if _, err := r.ReadString('\n'); err != nil {
		log.Fatalf("read stdin: %v", err)
	}
}
