package hcsr04

import (
	"errors"
	"slices"
	"strconv"
)

// ErrNoSamples is returned when a median is requested from an empty sample set
var ErrNoSamples = errors.New("no samples")

// Median sorts a copy of samples ascending and returns the element at index
// len(samples)/2. For an even count this is the upper of the two middle
// values; the samples are not averaged.
func Median(samples []int) (int, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	return sorted[len(sorted)/2], nil
}

// Distance scales a high bit count by the time one bit takes on the bus:
// highBits * speedOfSound / clockHz.
func Distance(highBits int, speedOfSound float64, clockHz int64) float64 {
	return float64(highBits) * speedOfSound / float64(clockHz)
}

// Result is the reported outcome of one measurement
type Result struct {
	Median   int      // Median high bit count
	Distance *float64 // Scaled median, set only when a speed of sound is configured
}

// NewResult computes the median of samples and, when speedOfSound is not
// nil, the matching distance.
func NewResult(samples []int, speedOfSound *float64, clockHz int64) (*Result, error) {
	median, err := Median(samples)
	if err != nil {
		return nil, err
	}

	r := Result{Median: median}
	if speedOfSound != nil {
		d := Distance(median, *speedOfSound, clockHz)
		r.Distance = &d
	}

	return &r, nil
}

// String returns the single output line: the distance when present,
// otherwise the raw count.
func (r *Result) String() string {
	if r.Distance != nil {
		return strconv.FormatFloat(*r.Distance, 'f', -1, 64)
	}
	return strconv.Itoa(r.Median)
}
