// Package smoothing provides the adaptive low-pass filter used to steady
// wand pointer positions derived from noisy orientation data.
package smoothing

import (
	"math"
	"time"
)

// Default one-euro parameters tuned for normalized screen coordinates
// sampled at tracker rate.
const (
	DefaultFrequency = 60.0
	DefaultMinCutoff = 1.0
	DefaultBeta      = 0.007
	DefaultDCutoff   = 1.0
)

// lowPass is an exponential smoothing stage with a caller-supplied alpha.
type lowPass struct {
	y           float64
	initialized bool
}

func (l *lowPass) filter(x, alpha float64) float64 {
	if !l.initialized {
		l.y = x
		l.initialized = true
		return x
	}
	l.y = alpha*x + (1-alpha)*l.y
	return l.y
}

// OneEuroFilter is the 1€ filter (Casiez et al.): a low-pass filter whose
// cutoff rises with the signal's speed, trading jitter for lag only while
// the value is still.
type OneEuroFilter struct {
	freq      float64
	minCutoff float64
	beta      float64
	dCutoff   float64

	x        lowPass
	dx       lowPass
	lastTime time.Time
}

// NewOneEuroFilter creates a filter. freq is the nominal sample rate in Hz
// and is refined from timestamps once samples arrive.
func NewOneEuroFilter(freq, minCutoff, beta, dCutoff float64) *OneEuroFilter {
	if freq <= 0 {
		freq = DefaultFrequency
	}
	if minCutoff <= 0 {
		minCutoff = DefaultMinCutoff
	}
	if dCutoff <= 0 {
		dCutoff = DefaultDCutoff
	}
	return &OneEuroFilter{
		freq:      freq,
		minCutoff: minCutoff,
		beta:      beta,
		dCutoff:   dCutoff,
	}
}

// NewDefaultOneEuroFilter creates a filter with the package defaults.
func NewDefaultOneEuroFilter() *OneEuroFilter {
	return NewOneEuroFilter(DefaultFrequency, DefaultMinCutoff, DefaultBeta, DefaultDCutoff)
}

func alpha(freq, cutoff float64) float64 {
	te := 1.0 / freq
	tau := 1.0 / (2 * math.Pi * cutoff)
	return 1.0 / (1.0 + tau/te)
}

// Filter returns the smoothed value for a sample taken at ts. Samples with
// a zero or non-increasing timestamp reuse the current frequency estimate.
func (f *OneEuroFilter) Filter(value float64, ts time.Time) float64 {
	if !f.lastTime.IsZero() && !ts.IsZero() {
		if dt := ts.Sub(f.lastTime).Seconds(); dt > 0 {
			f.freq = 1.0 / dt
		}
	}
	if !ts.IsZero() {
		f.lastTime = ts
	}

	var dvalue float64
	if f.x.initialized {
		dvalue = (value - f.x.y) * f.freq
	}
	edvalue := f.dx.filter(dvalue, alpha(f.freq, f.dCutoff))
	cutoff := f.minCutoff + f.beta*math.Abs(edvalue)
	return f.x.filter(value, alpha(f.freq, cutoff))
}

// Reset discards the filter history.
func (f *OneEuroFilter) Reset() {
	f.x = lowPass{}
	f.dx = lowPass{}
	f.lastTime = time.Time{}
}

// Filter2D smooths a 2D point with one filter per axis.
type Filter2D struct {
	X, Y *OneEuroFilter
}

// NewFilter2D creates a pair of filters with identical parameters.
func NewFilter2D(freq, minCutoff, beta, dCutoff float64) *Filter2D {
	return &Filter2D{
		X: NewOneEuroFilter(freq, minCutoff, beta, dCutoff),
		Y: NewOneEuroFilter(freq, minCutoff, beta, dCutoff),
	}
}

// Filter smooths both coordinates of a sample taken at ts.
func (f *Filter2D) Filter(x, y float64, ts time.Time) (float64, float64) {
	return f.X.Filter(x, ts), f.Y.Filter(y, ts)
}

// Reset discards the history of both axes.
func (f *Filter2D) Reset() {
	f.X.Reset()
	f.Y.Reset()
}
