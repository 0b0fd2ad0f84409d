package vswr

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// MethodNone disables curve smoothing in Interpolate.
const MethodNone = "none"

// MinInterpolationPoints is the smallest input a cubic fit accepts.
const MinInterpolationPoints = 4

// Interpolate densifies a measured curve with a natural cubic spline. Every
// original point is preserved in the output; between each adjacent pair, up
// to factor new integer-kHz points are inserted at step floor(Δf/(factor+1)),
// each evaluated from the spline. Insertion is skipped for pairs whose step
// floors to zero. Output values are rounded to three decimals and the result
// is sorted by frequency.
//
// With method "none" or factor < 1 the input set is returned unchanged apart
// from the three-decimal rounding. Fewer than four points with smoothing
// requested is an error rather than a silent fallback to the raw curve.
func Interpolate(points []Point, factor int, method string) ([]Point, error) {
	if method == MethodNone || factor < 1 {
		out := make([]Point, len(points))
		for i, p := range points {
			out[i] = Point{FreqKHz: p.FreqKHz, Value: round3(p.Value)}
		}
		return out, nil
	}

	if len(points) < MinInterpolationPoints {
		return nil, fmt.Errorf("interpolation requires at least %d points, got %d",
			MinInterpolationPoints, len(points))
	}

	sorted := sortByFreq(points)
	spline, err := fitSpline(sorted)
	if err != nil {
		return nil, err
	}

	out := make([]Point, 0, len(sorted)*(factor+1))
	for i, p := range sorted {
		out = append(out, Point{FreqKHz: p.FreqKHz, Value: round3(p.Value)})
		if i == len(sorted)-1 {
			break
		}

		step := (sorted[i+1].FreqKHz - p.FreqKHz) / (factor + 1)
		if step == 0 {
			continue
		}
		for j := 1; j <= factor; j++ {
			freq := p.FreqKHz + j*step
			out = append(out, Point{FreqKHz: freq, Value: round3(spline.Predict(float64(freq)))})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].FreqKHz < out[j].FreqKHz })
	return out, nil
}

// InsertCriterionPoints guarantees a value exists at each named frequency,
// regardless of sweep step alignment. Missing frequencies are evaluated from
// a cubic interpolant over the existing points; a criterion frequency
// outside the measured span is an error, since extrapolating an acceptance
// value would be meaningless. The result is a union keyed by integer
// frequency, collapsing duplicates, sorted by frequency.
func InsertCriterionPoints(points []Point, freqs ...int) ([]Point, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to insert criterion frequencies into")
	}

	sorted := sortByFreq(points)
	minFreq := sorted[0].FreqKHz
	maxFreq := sorted[len(sorted)-1].FreqKHz

	byFreq := make(map[int]float64, len(sorted)+len(freqs))
	for _, p := range sorted {
		byFreq[p.FreqKHz] = p.Value
	}

	var spline *interp.NaturalCubic
	for _, freq := range freqs {
		if _, ok := byFreq[freq]; ok {
			continue
		}
		if freq < minFreq || freq > maxFreq {
			return nil, fmt.Errorf("criterion frequency %d kHz is outside measured span %d-%d kHz",
				freq, minFreq, maxFreq)
		}
		if spline == nil {
			s, err := fitSpline(sorted)
			if err != nil {
				return nil, err
			}
			spline = s
		}
		byFreq[freq] = round3(spline.Predict(float64(freq)))
	}

	out := make([]Point, 0, len(byFreq))
	for freq, value := range byFreq {
		out = append(out, Point{FreqKHz: freq, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FreqKHz < out[j].FreqKHz })
	return out, nil
}

// fitSpline fits a natural cubic spline over frequency-sorted points.
// Duplicate frequencies are collapsed first; gonum requires strictly
// increasing abscissae.
func fitSpline(sorted []Point) (*interp.NaturalCubic, error) {
	xs := make([]float64, 0, len(sorted))
	ys := make([]float64, 0, len(sorted))
	for _, p := range sorted {
		if len(xs) > 0 && float64(p.FreqKHz) == xs[len(xs)-1] {
			continue
		}
		xs = append(xs, float64(p.FreqKHz))
		ys = append(ys, p.Value)
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("need at least 2 distinct frequencies to fit a spline, got %d", len(xs))
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fit cubic spline: %w", err)
	}
	return &spline, nil
}
