package vswr

import (
	"fmt"
)

// EvaluateRange reports whether the curve stays at or below limit across the
// query range [lowKHz, highKHz]. Between measured points the curve is taken
// as linear, so each segment is checked at its range-clipped endpoints: a
// linear segment has no interior extremum, making the endpoint check
// sufficient. Segments entirely outside the query range never affect the
// result. A query range extending beyond the measured span is an error.
func EvaluateRange(points []Point, lowKHz, highKHz int, limit float64) (bool, error) {
	if len(points) == 0 {
		return false, fmt.Errorf("no points to evaluate")
	}

	sorted := sortByFreq(points)
	minFreq := sorted[0].FreqKHz
	maxFreq := sorted[len(sorted)-1].FreqKHz
	if lowKHz < minFreq || highKHz > maxFreq {
		return false, fmt.Errorf("requested frequency range (%d-%d kHz) is outside measured range (%d-%d kHz)",
			lowKHz, highKHz, minFreq, maxFreq)
	}

	for i := 0; i < len(sorted)-1; i++ {
		f1, v1 := sorted[i].FreqKHz, sorted[i].Value
		f2, v2 := sorted[i+1].FreqKHz, sorted[i+1].Value

		if f1 > highKHz || f2 < lowKHz {
			continue
		}

		if v1 <= limit && v2 <= limit {
			continue
		}

		slope := (v2 - v1) / float64(f2-f1)
		checkStart := max(f1, lowKHz)
		checkEnd := min(f2, highKHz)

		vStart := v1 + slope*float64(checkStart-f1)
		vEnd := v1 + slope*float64(checkEnd-f1)
		if vStart > limit || vEnd > limit {
			return false, nil
		}
	}
	return true, nil
}
