package envelope

import (
	"fmt"
	"math"
)

const (
	defaultAttackSeconds = 0.01
	defaultDecaySeconds  = 1.0
	defaultCurveFactor   = 1.0

	// minCurveFactor is the floor applied to curve factors. A factor of
	// zero or below would produce 0^0 / NaN in the pow-based shaping.
	minCurveFactor = 1e-4

	// indexIdle marks the generator as inactive.
	indexIdle = -1
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	attackSeconds float64
	decaySeconds  float64
	attackCurve   float64
	decayCurve    float64
}

func defaultConfig() config {
	return config{
		attackSeconds: defaultAttackSeconds,
		decaySeconds:  defaultDecaySeconds,
		attackCurve:   defaultCurveFactor,
		decayCurve:    defaultCurveFactor,
	}
}

// WithAttackTime sets the initial attack time in seconds.
func WithAttackTime(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("envelope attack time must be >= 0 and finite: %f", seconds)
		}
		cfg.attackSeconds = seconds
		return nil
	}
}

// WithDecayTime sets the initial decay time in seconds.
func WithDecayTime(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("envelope decay time must be >= 0 and finite: %f", seconds)
		}
		cfg.decaySeconds = seconds
		return nil
	}
}

// WithCurves sets the initial attack and decay curve factors.
func WithCurves(attack, decay float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(attack) || math.IsInf(attack, 0) ||
			math.IsNaN(decay) || math.IsInf(decay, 0) {
			return fmt.Errorf("envelope curve factors must be finite: attack=%f decay=%f", attack, decay)
		}
		cfg.attackCurve = attack
		cfg.decayCurve = decay
		return nil
	}
}

// Generator is a block-rate attack/decay envelope.
//
// After Trigger, the envelope rises from its starting value to 1 over the
// attack phase and falls back to 0 over the decay phase, then goes idle.
// Values are shaped by per-phase curve factors:
//
//   - Attack: 1.0 = linear growth, <1.0 = logarithmic, >1.0 = exponential.
//   - Decay: 1.0 = linear decay, <1.0 = exponential, >1.0 = logarithmic.
//
// The inversion between the two phases follows from the shaping formulas:
// the attack applies the exponent to a rising fraction, the decay applies
// it to the elapsed-decay fraction and subtracts from 1.
//
// Single-threaded; exclusively owned by one processing instance.
type Generator struct {
	sampleRate float64

	attackSeconds float64
	decaySeconds  float64
	attackCurve   float64
	decayCurve    float64

	// Derived each time UpdateParams runs.
	attackSamples     int
	decaySamples      int
	attackCurveFactor float64
	decayCurveFactor  float64

	// index is the position within the current attack+decay run, or
	// indexIdle when no envelope is active.
	index int

	startValue   float64
	currentValue float64
}

// NewGenerator creates a generator with practical defaults and optional overrides.
func NewGenerator(sampleRate float64, opts ...Option) (*Generator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope sample rate must be > 0 and finite: %f", sampleRate)
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

	g := &Generator{
		sampleRate:    sampleRate,
		attackSeconds: cfg.attackSeconds,
		decaySeconds:  cfg.decaySeconds,
		attackCurve:   cfg.attackCurve,
		decayCurve:    cfg.decayCurve,
		index:         indexIdle,
	}
	g.UpdateParams()

	return g, nil
}

// SetTimes updates attack and decay times in seconds. Negative or
// non-finite values are treated as zero. Takes effect on the next
// UpdateParams call.
func (g *Generator) SetTimes(attackSeconds, decaySeconds float64) {
	g.attackSeconds = sanitizeSeconds(attackSeconds)
	g.decaySeconds = sanitizeSeconds(decaySeconds)
}

// SetCurves updates attack and decay curve factors. Values at or below
// zero (and non-finite values) are clamped to a small positive minimum.
// Takes effect on the next UpdateParams call.
func (g *Generator) SetCurves(attack, decay float64) {
	g.attackCurve = attack
	g.decayCurve = decay
}

// UpdateParams re-derives sample counts and clamped curve factors from the
// current time and curve settings. It must run before the first Advance of
// a block, and again immediately after Trigger so an edge always sees
// fresh parameters.
func (g *Generator) UpdateParams() {
	g.attackSamples = sampleCount(g.sampleRate, g.attackSeconds)
	g.decaySamples = sampleCount(g.sampleRate, g.decaySeconds)
	g.attackCurveFactor = sanitizeCurve(g.attackCurve)
	g.decayCurveFactor = sanitizeCurve(g.decayCurve)
}

// Trigger starts (or restarts) the envelope. Without hard reset the
// attack continues from the current envelope value, so a retrigger
// mid-decay never produces a downward jump. With hard reset the attack
// starts from zero.
func (g *Generator) Trigger(hardReset bool) {
	g.index = 0

	if hardReset {
		g.startValue = 0
	} else {
		g.startValue = g.currentValue
	}
}

// Advance computes the envelope value for the sub-range [startFrame,
// endFrame) of the current block. The sub-range must contain no trigger
// edge. done reports that the envelope completed its run during this call
// (at the sub-range's first frame).
//
// A call with startFrame > 0, or while idle, is a defined no-op returning
// 0 without mutating any state: the envelope only advances from the start
// of a block, and a later sub-range with no active envelope has already
// decayed to silence.
func (g *Generator) Advance(startFrame, endFrame int) (value float64, done bool) {
	if startFrame > 0 || g.index == indexIdle {
		return 0, false
	}

	switch {
	case g.index < g.attackSamples:
		if g.attackSamples > 1 {
			fraction := float64(g.index) / float64(g.attackSamples)
			value = g.startValue + (1-g.startValue)*math.Pow(fraction, g.attackCurveFactor)
		} else {
			// Instant attack.
			value = 1
		}
		g.index++

	case g.index < g.attackSamples+g.decaySamples:
		fraction := float64(g.index-g.attackSamples) / float64(g.decaySamples)
		value = 1 - math.Pow(fraction, g.decayCurveFactor)
		g.index++

	default:
		g.index = indexIdle
		g.currentValue = 0

		return 0, true
	}

	g.currentValue = value

	return value, false
}

// Active reports whether an attack or decay phase is in progress.
func (g *Generator) Active() bool {
	return g.index != indexIdle
}

// Value returns the last computed envelope value. It is the baseline for
// the next soft retrigger.
func (g *Generator) Value() float64 {
	return g.currentValue
}

// AttackSampleCount returns the derived attack length in block-rate steps.
func (g *Generator) AttackSampleCount() int {
	return g.attackSamples
}

// DecaySampleCount returns the derived decay length in block-rate steps.
func (g *Generator) DecaySampleCount() int {
	return g.decaySamples
}

// SampleRate returns the configured sample rate in Hz.
func (g *Generator) SampleRate() float64 {
	return g.sampleRate
}

// Reset returns the generator to idle with a zero output value.
// Time and curve settings are preserved.
func (g *Generator) Reset() {
	g.index = indexIdle
	g.startValue = 0
	g.currentValue = 0
}

func sampleCount(sampleRate, seconds float64) int {
	n := int(math.Round(sampleRate * seconds))
	if n < 1 {
		return 1
	}
	return n
}

func sanitizeSeconds(seconds float64) float64 {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return seconds
}

func sanitizeCurve(factor float64) float64 {
	if factor < minCurveFactor || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return minCurveFactor
	}
	return factor
}
