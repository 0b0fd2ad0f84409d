// Package vswr implements the measurement post-processing pipeline: return
// loss to VSWR conversion, baseline capture selection and subtraction, cubic
// interpolation, criterion-point insertion, and threshold evaluation. The
// pipeline feeds a go/no-go antenna acceptance decision, so every transform
// is deliberate about edge cases: invalid inputs saturate rather than
// propagate into the pass/fail logic.
package vswr

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Point is one measurement: a frequency and a value. Before conversion the
// value is return loss in dBm; after conversion it is a VSWR ratio.
type Point struct {
	FreqKHz int
	Value   float64
}

// VSWR saturation bounds. A perfect match reads 1.0; the pipeline clamps to
// [1.1, 5.0] so the acceptance math never sees an unbounded ratio.
const (
	VSWRFloor   = 1.1
	VSWRCeiling = 5.0
)

// ReturnLossToVSWR converts a return loss in dB to a VSWR ratio. Total
// reflection (0 dB) and any non-finite input saturate to the ceiling so an
// invalid reading can never look like a passing antenna.
func ReturnLossToVSWR(db float64) float64 {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return VSWRCeiling
	}
	reflection := math.Pow(10, -math.Abs(db)/20)
	if reflection >= 1 {
		return VSWRCeiling
	}
	v := (1 + reflection) / (1 - reflection)
	if v < VSWRFloor {
		return VSWRFloor
	}
	if v > VSWRCeiling {
		return VSWRCeiling
	}
	return v
}

// ProcessVSWR converts a return-loss sweep into a VSWR curve.
func ProcessVSWR(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{FreqKHz: p.FreqKHz, Value: ReturnLossToVSWR(p.Value)}
	}
	return out
}

// Mean returns the average value across a capture.
func Mean(points []Point) float64 {
	if len(points) == 0 {
		return math.NaN()
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return stat.Mean(values, nil)
}

// SelectBaseline picks the no-target reference from repeated captures: the
// capture with the highest mean level. With nothing connected a higher
// reported level is the more conservative reference for later subtraction.
// Ties keep the earliest capture.
func SelectBaseline(captures [][]Point) ([]Point, error) {
	if len(captures) == 0 {
		return nil, fmt.Errorf("no baseline captures provided")
	}
	best := 0
	bestMean := math.Inf(-1)
	for i, capture := range captures {
		if len(capture) == 0 {
			return nil, fmt.Errorf("baseline capture %d is empty", i)
		}
		if m := Mean(capture); m > bestMean {
			best = i
			bestMean = m
		}
	}
	return captures[best], nil
}

// SubtractBaseline removes the reference level from a sweep, frequency by
// frequency. A sweep frequency with no baseline entry passes through
// unchanged; there is no cross-frequency interpolation here.
func SubtractBaseline(sweep, baseline []Point) []Point {
	ref := make(map[int]float64, len(baseline))
	for _, p := range baseline {
		ref[p.FreqKHz] = p.Value
	}

	out := make([]Point, len(sweep))
	for i, p := range sweep {
		if base, ok := ref[p.FreqKHz]; ok {
			out[i] = Point{FreqKHz: p.FreqKHz, Value: p.Value - base}
		} else {
			out[i] = p
		}
	}
	return out
}

// FindLowestReflected keeps whichever capture shows the lower mean reflected
// level: the current one, or the best seen so far. Used while reseating an
// antenna to retain the best contact found across repeated scans. Returns
// the retained capture and its mean.
func FindLowestReflected(current, previousLowest []Point) ([]Point, float64) {
	currentMean := Mean(current)
	if previousLowest == nil {
		return current, currentMean
	}
	lowestMean := Mean(previousLowest)
	if currentMean < lowestMean {
		return current, currentMean
	}
	return previousLowest, lowestMean
}

// sortByFreq returns a copy ordered by frequency.
func sortByFreq(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	sort.Slice(out, func(i, j int) bool { return out[i].FreqKHz < out[j].FreqKHz })
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
