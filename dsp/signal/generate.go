// Package signal creates deterministic test and demo signals.
package signal

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-lpg/dsp/core"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Sine fills a new buffer of length frames with a sine of the given
// frequency and amplitude.
func (g *Generator) Sine(frames int, freqHz, amplitude float64) []float64 {
	if frames < 0 {
		frames = 0
	}

	out := make([]float64, frames)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Impulse returns a buffer of length frames with a single unit sample at
// offset (clamped into range for non-empty buffers).
func (g *Generator) Impulse(frames, offset int) []float64 {
	if frames < 0 {
		frames = 0
	}

	out := make([]float64, frames)
	if frames == 0 {
		return out
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= frames {
		offset = frames - 1
	}

	out[offset] = 1
	return out
}

// Noise returns uniform white noise in [-amplitude, amplitude], seeded
// deterministically.
func (g *Generator) Noise(frames int, amplitude float64) []float64 {
	if frames < 0 {
		frames = 0
	}

	rng := rand.New(rand.NewSource(g.seed))
	out := make([]float64, frames)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// Constant returns a buffer of length frames filled with value.
func (g *Generator) Constant(frames int, value float64) []float64 {
	if frames < 0 {
		frames = 0
	}

	out := make([]float64, frames)
	for i := range out {
		out[i] = value
	}
	return out
}
