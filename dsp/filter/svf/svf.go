package svf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpg/dsp/core"
)

const (
	defaultFrequencyHz = 1000.0

	// minQ is the effective floor for resonance. Values below it (including
	// the common "no resonance" setting of 0) behave as a critically damped
	// response with no peaking.
	minQ = 0.5
	maxQ = 10.0

	// maxFrequencyRatio keeps tan(pi*f/rate) away from its pole at Nyquist.
	maxFrequencyRatio = 0.499
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	frequencyHz     float64
	q               float64
	bandStopControl float64
}

func defaultConfig() config {
	return config{
		frequencyHz: defaultFrequencyHz,
	}
}

// WithFrequency sets the initial cutoff frequency in Hz.
func WithFrequency(hz float64) Option {
	return func(cfg *config) error {
		if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("svf frequency must be >= 0 and finite: %f", hz)
		}
		cfg.frequencyHz = hz
		return nil
	}
}

// WithQ sets the initial resonance.
func WithQ(q float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return fmt.Errorf("svf q must be finite: %f", q)
		}
		cfg.q = q
		return nil
	}
}

// WithBandStopControl sets the initial notch blend in [0, 1].
func WithBandStopControl(amount float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return fmt.Errorf("svf band-stop control must be finite: %f", amount)
		}
		cfg.bandStopControl = amount
		return nil
	}
}

// Filter is a low-pass state-variable filter with an optional notch blend.
//
// The core is the two-integrator TPT structure:
//
//	v3 = x - ic2eq
//	v1 = a1*ic1eq + a2*v3
//	v2 = ic2eq + a2*ic1eq + a3*v3
//	ic1eq = 2*v1 - ic1eq
//	ic2eq = 2*v2 - ic2eq
//
// where v2 is the low-pass output and x - k*v1 - v2 the high-pass output.
// The band-stop control blends the notch (lp+hp) response into the
// low-pass output: 0 is pure low-pass, 1 is a full notch.
//
// Single-threaded; not safe for concurrent use.
type Filter struct {
	sampleRate float64
	channels   int

	// Staged targets, applied by Commit.
	frequencyHz     float64
	q               float64
	bandStopControl float64

	// Committed coefficients.
	k        float64
	a1       float64
	a2       float64
	a3       float64
	notchMix float64

	// Per-channel integrator state.
	ic1eq []float64
	ic2eq []float64
}

// New creates a filter for the given sample rate and channel count.
// ProcessBlock expects frames interleaved across channels.
func New(sampleRate float64, channels int, opts ...Option) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("svf sample rate must be > 0 and finite: %f", sampleRate)
	}

	if channels < 1 {
		return nil, fmt.Errorf("svf channel count must be >= 1: %d", channels)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{
		sampleRate:      sampleRate,
		channels:        channels,
		frequencyHz:     cfg.frequencyHz,
		q:               cfg.q,
		bandStopControl: cfg.bandStopControl,
		ic1eq:           make([]float64, channels),
		ic2eq:           make([]float64, channels),
	}
	f.Commit()

	return f, nil
}

// SetFrequency stages a new cutoff frequency in Hz.
// Takes effect on the next Commit.
func (f *Filter) SetFrequency(hz float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return
	}

	f.frequencyHz = math.Max(hz, 0)
}

// SetQ stages a new resonance. Takes effect on the next Commit.
func (f *Filter) SetQ(q float64) {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return
	}

	f.q = q
}

// SetBandStopControl stages a new notch blend in [0, 1].
// Takes effect on the next Commit.
func (f *Filter) SetBandStopControl(amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}

	f.bandStopControl = core.Clamp(amount, 0, 1)
}

// Frequency returns the staged cutoff frequency in Hz.
func (f *Filter) Frequency() float64 { return f.frequencyHz }

// Q returns the staged resonance.
func (f *Filter) Q() float64 { return f.q }

// BandStopControl returns the staged notch blend.
func (f *Filter) BandStopControl() float64 { return f.bandStopControl }

// Commit recomputes coefficients from the staged parameters. This is the
// expensive step; callers processing block-rate control signals should
// skip it when parameters have not changed.
func (f *Filter) Commit() {
	ratio := core.Clamp(f.frequencyHz/f.sampleRate, 0, maxFrequencyRatio)
	g := math.Tan(math.Pi * ratio)

	f.k = 1 / core.Clamp(f.q, minQ, maxQ)
	f.a1 = 1 / (1 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
	f.notchMix = f.bandStopControl
}

// ProcessBlock filters in into out using the committed coefficients.
// Buffers hold frames interleaved across channels; the shorter of the two
// lengths is processed. in and out may alias.
func (f *Filter) ProcessBlock(in, out []float64) {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}

	for i := 0; i < n; i++ {
		ch := i % f.channels
		x := in[i]

		v3 := x - f.ic2eq[ch]
		v1 := f.a1*f.ic1eq[ch] + f.a2*v3
		v2 := f.ic2eq[ch] + f.a2*f.ic1eq[ch] + f.a3*v3
		f.ic1eq[ch] = 2*v1 - f.ic1eq[ch]
		f.ic2eq[ch] = 2*v2 - f.ic2eq[ch]

		lp := v2
		hp := x - f.k*v1 - lp

		out[i] = lp + f.notchMix*hp
	}

	for ch := 0; ch < f.channels; ch++ {
		f.ic1eq[ch] = core.FlushDenormals(f.ic1eq[ch])
		f.ic2eq[ch] = core.FlushDenormals(f.ic2eq[ch])
	}
}

// Reset clears the integrator state without touching parameters.
func (f *Filter) Reset() {
	for ch := range f.ic1eq {
		f.ic1eq[ch] = 0
		f.ic2eq[ch] = 0
	}
}
