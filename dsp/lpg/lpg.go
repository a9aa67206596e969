package lpg

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-lpg/dsp/buffer"
	"github.com/cwbudde/algo-lpg/dsp/core"
	"github.com/cwbudde/algo-lpg/dsp/envelope"
	"github.com/cwbudde/algo-lpg/dsp/filter/svf"
)

const (
	defaultBlockSize = 256
	defaultCutoffHz  = 1000.0
	defaultAttackSec = 0.01
	defaultDecaySec  = 1.0
	defaultCurve     = 1.0

	// controlRangeMax is the upper end of the linear cutoff control range
	// used by ModeBoth to derive the gate gain.
	controlRangeMax = 20000.0

	// The node exposes no resonance or band-stop control; the filter
	// contract retains both, pinned to these values.
	fixedResonance = 0.0
	fixedBandStop  = 0.0

	// cacheUnset is outside every valid parameter range, so the first
	// block always commits filter parameters.
	cacheUnset = -1.0

	// cacheTolerance is the near-equality window for the parameter cache.
	cacheTolerance = 1e-4
)

// VariableFilter is the capability contract the processor requires from
// its filter. Setters stage parameters, Commit applies them; this lets the
// processor skip the coefficient recompute when the control signal is
// static across blocks. Any state-variable or biquad implementation
// satisfying it can be substituted.
type VariableFilter interface {
	SetFrequency(hz float64)
	SetQ(q float64)
	SetBandStopControl(amount float64)
	Commit()
	ProcessBlock(in, out []float64)
	Reset()
}

// BlockEvents carries the per-block trigger outputs and envelope value.
// The frame slices are reused by the processor and only valid until the
// next ProcessBlock call.
type BlockEvents struct {
	// AttackFrames lists the frames at which an envelope attack started,
	// one per input trigger, in order.
	AttackFrames []int
	// DoneFrames lists the frames at which an envelope run completed.
	DoneFrames []int
	// Envelope is the most recent block-rate envelope value. In
	// ModeLowPass it simply carries the value from before the mode switch.
	Envelope float64
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	blockSize     int
	mode          Mode
	attackSec     float64
	decaySec      float64
	attackCurve   float64
	decayCurve    float64
	cutoffHz      float64
	hardRetrigger bool
	filter        VariableFilter
}

func defaultProcessorConfig() config {
	return config{
		blockSize:   defaultBlockSize,
		mode:        ModeLowPass,
		attackSec:   defaultAttackSec,
		decaySec:    defaultDecaySec,
		attackCurve: defaultCurve,
		decayCurve:  defaultCurve,
		cutoffHz:    defaultCutoffHz,
	}
}

// WithBlockSize sets the fixed frames-per-block the processor is sized for.
func WithBlockSize(frames int) Option {
	return func(cfg *config) error {
		if frames < 1 {
			return fmt.Errorf("lpg block size must be >= 1: %d", frames)
		}
		cfg.blockSize = frames
		return nil
	}
}

// WithMode sets the initial operating mode.
func WithMode(mode Mode) Option {
	return func(cfg *config) error {
		if !validMode(mode) {
			return fmt.Errorf("lpg invalid mode: %d", mode)
		}
		cfg.mode = mode
		return nil
	}
}

// WithAttackTime sets the initial envelope attack time in seconds.
func WithAttackTime(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("lpg attack time must be >= 0 and finite: %f", seconds)
		}
		cfg.attackSec = seconds
		return nil
	}
}

// WithDecayTime sets the initial envelope decay time in seconds.
func WithDecayTime(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("lpg decay time must be >= 0 and finite: %f", seconds)
		}
		cfg.decaySec = seconds
		return nil
	}
}

// WithCurves sets the initial attack and decay curve factors.
func WithCurves(attack, decay float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(attack) || math.IsInf(attack, 0) ||
			math.IsNaN(decay) || math.IsInf(decay, 0) {
			return fmt.Errorf("lpg curve factors must be finite: attack=%f decay=%f", attack, decay)
		}
		cfg.attackCurve = attack
		cfg.decayCurve = decay
		return nil
	}
}

// WithCutoff sets the initial cutoff control value.
func WithCutoff(hz float64) Option {
	return func(cfg *config) error {
		if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("lpg cutoff must be >= 0 and finite: %f", hz)
		}
		cfg.cutoffHz = hz
		return nil
	}
}

// WithHardRetrigger makes every trigger restart the attack from zero
// instead of the current envelope value.
func WithHardRetrigger(hard bool) Option {
	return func(cfg *config) error {
		cfg.hardRetrigger = hard
		return nil
	}
}

// WithFilter substitutes the wrapped filter implementation.
// The filter must already be initialized for the processor's sample rate.
func WithFilter(filter VariableFilter) Option {
	return func(cfg *config) error {
		if filter == nil {
			return fmt.Errorf("lpg filter must not be nil")
		}
		cfg.filter = filter
		return nil
	}
}

// Processor is a single low-pass gate voice.
//
// One ProcessBlock call handles exactly one audio block to completion:
// no locking, no I/O, no allocation beyond the construction-time scratch
// and event storage. Sample rate and block size are fixed for the
// processor's lifetime; changing either requires a new processor.
//
// Single-threaded; exclusively owned by its caller.
type Processor struct {
	sampleRate float64
	blockSize  int

	mode          Mode
	cutoffHz      float64
	hardRetrigger bool

	env    *envelope.Generator
	filter VariableFilter

	// Last committed filter parameters. Out-of-range sentinels force the
	// first block to commit.
	prevFrequency float64
	prevResonance float64
	prevBandStop  float64

	// Scratch block for ModeBoth, sized once at construction.
	scratch *buffer.Buffer

	attackFrames  []int
	doneFrames    []int
	envelopeValue float64
}

// NewProcessor creates a low-pass gate for the given sample rate.
func NewProcessor(sampleRate float64, opts ...Option) (*Processor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("lpg sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultProcessorConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	env, err := envelope.NewGenerator(sampleRate,
		envelope.WithAttackTime(cfg.attackSec),
		envelope.WithDecayTime(cfg.decaySec),
		envelope.WithCurves(cfg.attackCurve, cfg.decayCurve),
	)
	if err != nil {
		return nil, err
	}

	filter := cfg.filter
	if filter == nil {
		filter, err = svf.New(sampleRate, 1)
		if err != nil {
			return nil, err
		}
	}

	return &Processor{
		sampleRate:    sampleRate,
		blockSize:     cfg.blockSize,
		mode:          cfg.mode,
		cutoffHz:      cfg.cutoffHz,
		hardRetrigger: cfg.hardRetrigger,
		env:           env,
		filter:        filter,
		prevFrequency: cacheUnset,
		prevResonance: cacheUnset,
		prevBandStop:  cacheUnset,
		scratch:       buffer.New(cfg.blockSize),
		attackFrames:  make([]int, 0, 8),
		doneFrames:    make([]int, 0, 8),
	}, nil
}

// SetMode changes the operating mode for subsequent blocks.
// Values outside the enumeration are ignored.
func (p *Processor) SetMode(mode Mode) {
	if !validMode(mode) {
		return
	}

	p.mode = mode
}

// SetCutoff updates the cutoff control value. Non-finite values are
// ignored; negative values clamp to zero. Interpretation is mode
// dependent, see Mode.
func (p *Processor) SetCutoff(hz float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return
	}

	p.cutoffHz = math.Max(hz, 0)
}

// SetEnvelopeTimes updates attack and decay times in seconds.
// Effective from the next block (or the next trigger edge within it).
func (p *Processor) SetEnvelopeTimes(attackSeconds, decaySeconds float64) {
	p.env.SetTimes(attackSeconds, decaySeconds)
}

// SetEnvelopeCurves updates attack and decay curve factors.
// Non-positive factors behave as a small positive minimum.
func (p *Processor) SetEnvelopeCurves(attack, decay float64) {
	p.env.SetCurves(attack, decay)
}

// SetHardRetrigger selects whether triggers restart the attack from zero.
func (p *Processor) SetHardRetrigger(hard bool) {
	p.hardRetrigger = hard
}

// Mode returns the current operating mode.
func (p *Processor) Mode() Mode { return p.mode }

// Cutoff returns the current cutoff control value.
func (p *Processor) Cutoff() float64 { return p.cutoffHz }

// SampleRate returns the configured sample rate in Hz.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// BlockSize returns the configured frames per block.
func (p *Processor) BlockSize() int { return p.blockSize }

// EnvelopeValue returns the last computed block-rate envelope value.
func (p *Processor) EnvelopeValue() float64 { return p.envelopeValue }

// EnvelopeActive reports whether an attack or decay phase is in progress.
func (p *Processor) EnvelopeActive() bool { return p.env.Active() }

// ProcessBlock processes one audio block. triggers lists attack trigger
// frames within [0, len(in)) in strictly increasing order; frames outside
// that range are skipped. The shorter of in and out bounds the processed
// frame count, which must not exceed the configured block size.
//
// The returned event slices are reused across calls.
func (p *Processor) ProcessBlock(in, out []float64, triggers []int) BlockEvents {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}

	switch p.mode {
	case ModeVCA:
		p.calculateEnvelope(triggers, n)
		vecmath.ScaleBlock(out[:n], in[:n], p.envelopeValue)

	case ModeBoth:
		mapped := core.MapRangeClamped(p.cutoffHz, 0, controlRangeMax, 0, 1)

		p.calculateEnvelope(triggers, n)
		gateEnvelope := p.envelopeValue * mapped

		scratch := p.scratchBlock(n)
		vecmath.ScaleBlock(scratch, in[:n], gateEnvelope)

		p.commitFilterParams()
		p.filter.ProcessBlock(scratch, out[:n])

	default: // ModeLowPass
		// Filter only: the envelope state stays untouched and no trigger
		// events are produced.
		p.attackFrames = p.attackFrames[:0]
		p.doneFrames = p.doneFrames[:0]

		p.commitFilterParams()
		p.filter.ProcessBlock(in[:n], out[:n])
	}

	return BlockEvents{
		AttackFrames: p.attackFrames,
		DoneFrames:   p.doneFrames,
		Envelope:     p.envelopeValue,
	}
}

// Reset returns the processor to its initial runtime state: idle
// envelope, cleared filter state, unset parameter cache. Control settings
// are preserved.
func (p *Processor) Reset() {
	p.env.Reset()
	p.filter.Reset()
	p.prevFrequency = cacheUnset
	p.prevResonance = cacheUnset
	p.prevBandStop = cacheUnset
	p.envelopeValue = 0
	p.attackFrames = p.attackFrames[:0]
	p.doneFrames = p.doneFrames[:0]
}

// calculateEnvelope advances the output trigger streams to the new block,
// refreshes envelope parameters, and walks the block's sub-ranges split
// at each trigger frame.
func (p *Processor) calculateEnvelope(triggers []int, n int) {
	p.attackFrames = p.attackFrames[:0]
	p.doneFrames = p.doneFrames[:0]

	p.env.UpdateParams()

	start := 0
	triggered := false

	for _, frame := range triggers {
		if frame < start || frame >= n {
			continue
		}

		if frame > start || triggered {
			p.processSubRange(start, frame, triggered)
			start = frame
		}

		triggered = true
	}

	p.processSubRange(start, n, triggered)
}

// processSubRange handles one contiguous sub-range with no trigger edge
// inside it. startsWithTrigger marks a sub-range whose first frame is a
// trigger: parameters are refreshed again (they may have changed since the
// block began) and the envelope restarts before advancing.
func (p *Processor) processSubRange(start, end int, startsWithTrigger bool) {
	if startsWithTrigger {
		p.env.UpdateParams()
		p.env.Trigger(p.hardRetrigger)
	}

	value, done := p.env.Advance(start, end)
	p.envelopeValue = value

	if done {
		p.doneFrames = append(p.doneFrames, start)
	}

	if startsWithTrigger {
		p.attackFrames = append(p.attackFrames, start)
	}
}

// commitFilterParams pushes cutoff/resonance/band-stop to the filter and
// commits, but only when one of them moved by more than the cache
// tolerance since the last commit. The coefficient recompute is the
// expensive part; a static control signal costs nothing after the first
// block.
func (p *Processor) commitFilterParams() {
	frequency := core.Clamp(p.cutoffHz, 0, 0.5*p.sampleRate)
	resonance := fixedResonance
	bandStop := fixedBandStop

	needsUpdate := !core.NearlyEqual(p.prevFrequency, frequency, cacheTolerance) ||
		!core.NearlyEqual(p.prevResonance, resonance, cacheTolerance) ||
		!core.NearlyEqual(p.prevBandStop, bandStop, cacheTolerance)
	if !needsUpdate {
		return
	}

	p.filter.SetQ(resonance)
	p.filter.SetFrequency(frequency)
	p.filter.SetBandStopControl(bandStop)
	p.filter.Commit()

	p.prevFrequency = frequency
	p.prevResonance = resonance
	p.prevBandStop = bandStop
}

// scratchBlock returns the scratch buffer sliced to n frames. Blocks
// within the configured size never allocate; an oversized block grows the
// scratch once as a defensive fallback.
func (p *Processor) scratchBlock(n int) []float64 {
	if n > p.scratch.Len() {
		p.scratch.Resize(n)
	}

	return p.scratch.Samples()[:n]
}
