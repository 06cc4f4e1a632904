package align

import "math"

// Smoother averages the most recent (start, end) match observations so the
// reported position does not jump between neighbouring candidates.
//
// Each retained sample i (oldest first) is weighted by n-i and pushed forward
// by its difference to the previous sample, extrapolating a steady reading
// pace instead of lagging behind it.
type Smoother struct {
	samples    [][2]int
	size       int
	minSamples int
}

// NewSmoother keeps up to size observations and reports a value once at least
// minSamples have been observed.
func NewSmoother(size, minSamples int) *Smoother {
	if size < 1 {
		size = 1
	}
	if minSamples < 1 {
		minSamples = 1
	}
	return &Smoother{
		samples:    make([][2]int, 0, size+1),
		size:       size,
		minSamples: minSamples,
	}
}

// Observe records a new observation and returns the smoothed pair.
// ok is false while fewer than minSamples observations are retained.
func (s *Smoother) Observe(start, end int) (smoothedStart, smoothedEnd int, ok bool) {
	s.samples = append(s.samples, [2]int{start, end})
	if len(s.samples) > s.size {
		s.samples = append(s.samples[:0], s.samples[len(s.samples)-s.size:]...)
	}

	if len(s.samples) < s.minSamples {
		return 0, 0, false
	}

	starts := make([]int, len(s.samples))
	ends := make([]int, len(s.samples))
	for i, sample := range s.samples {
		starts[i], ends[i] = sample[0], sample[1]
	}

	return roundUp(weightedAverage(starts)), roundUp(weightedAverage(ends)), true
}

// Len returns the number of retained observations.
func (s *Smoother) Len() int {
	return len(s.samples)
}

// Reset drops all retained observations.
func (s *Smoother) Reset() {
	s.samples = s.samples[:0]
}

func weightedAverage(values []int) float64 {
	var total, count float64
	for i, v := range values {
		bias := 0
		if i > 0 {
			bias = v - values[i-1]
		}
		weight := float64(len(values) - i)
		total += float64(v+bias) * weight
		count += weight
	}
	return total / count
}

func roundUp(v float64) int {
	return max(int(math.Ceil(v)), 0)
}
