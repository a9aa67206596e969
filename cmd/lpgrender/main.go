// Command lpgrender renders a low-pass gate voice offline to a WAV file.
//
// A source signal is generated, trigger pulses are laid out at a fixed
// interval, and the gate processes the signal block by block. The result
// is written as 16-bit mono PCM.
//
// Usage:
//
//	lpgrender [flags]
//
// Examples:
//
//	lpgrender -o pluck.wav
//	lpgrender -mode vca -source noise -decay 0.2 -o shaker.wav
//	lpgrender -mode lowpass -cutoff 800 -source sine -freq 220 -o dull.wav
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/youpy/go-wav"

	"github.com/cwbudde/algo-lpg/dsp/buffer"
	"github.com/cwbudde/algo-lpg/dsp/core"
	"github.com/cwbudde/algo-lpg/dsp/lpg"
	"github.com/cwbudde/algo-lpg/dsp/signal"
)

type renderConfig struct {
	outPath    string
	sampleRate float64
	blockSize  int
	duration   float64
	interval   float64

	mode        lpg.Mode
	cutoff      float64
	attack      float64
	decay       float64
	attackCurve float64
	decayCurve  float64
	hard        bool

	source    string
	frequency float64
	amplitude float64
	gainDB    float64
	seed      int64
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := render(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (renderConfig, error) {
	var cfg renderConfig

	flag.StringVar(&cfg.outPath, "o", "lpg.wav", "output WAV path")
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	flag.IntVar(&cfg.blockSize, "block", 256, "frames per processing block")
	flag.Float64Var(&cfg.duration, "duration", 2, "render length in seconds")
	flag.Float64Var(&cfg.interval, "interval", 0.5, "seconds between trigger pulses")
	mode := flag.String("mode", "both", "gate mode: lowpass, vca or both")
	flag.Float64Var(&cfg.cutoff, "cutoff", 2000, "cutoff control in Hz (scales gain in both mode)")
	flag.Float64Var(&cfg.attack, "attack", 0.005, "envelope attack time in seconds")
	flag.Float64Var(&cfg.decay, "decay", 0.5, "envelope decay time in seconds")
	flag.Float64Var(&cfg.attackCurve, "attack-curve", 1, "attack curve exponent")
	flag.Float64Var(&cfg.decayCurve, "decay-curve", 1, "decay curve exponent")
	flag.BoolVar(&cfg.hard, "hard", false, "restart the attack from zero on every trigger")
	flag.StringVar(&cfg.source, "source", "sine", "source signal: sine, noise or constant")
	flag.Float64Var(&cfg.frequency, "freq", 220, "source frequency in Hz (sine)")
	flag.Float64Var(&cfg.amplitude, "amp", 0.8, "source amplitude")
	flag.Float64Var(&cfg.gainDB, "gain", 0, "source gain in dB, applied on top of -amp")
	flag.Int64Var(&cfg.seed, "seed", 1, "noise seed")
	flag.Parse()

	cfg.sampleRate = *rate

	m, err := parseMode(*mode)
	if err != nil {
		return cfg, err
	}
	cfg.mode = m

	if cfg.duration <= 0 {
		return cfg, fmt.Errorf("duration must be > 0: %f", cfg.duration)
	}
	if cfg.interval <= 0 {
		return cfg, fmt.Errorf("interval must be > 0: %f", cfg.interval)
	}

	return cfg, nil
}

func parseMode(name string) (lpg.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lowpass":
		return lpg.ModeLowPass, nil
	case "vca":
		return lpg.ModeVCA, nil
	case "both":
		return lpg.ModeBoth, nil
	}
	return 0, fmt.Errorf("unknown mode %q (use lowpass, vca or both)", name)
}

func render(cfg renderConfig) error {
	p, err := lpg.NewProcessor(cfg.sampleRate,
		lpg.WithMode(cfg.mode),
		lpg.WithBlockSize(cfg.blockSize),
		lpg.WithCutoff(cfg.cutoff),
		lpg.WithAttackTime(cfg.attack),
		lpg.WithDecayTime(cfg.decay),
		lpg.WithCurves(cfg.attackCurve, cfg.decayCurve),
		lpg.WithHardRetrigger(cfg.hard),
	)
	if err != nil {
		return err
	}

	totalFrames := int(cfg.sampleRate * cfg.duration)
	source, err := makeSource(cfg, totalFrames)
	if err != nil {
		return err
	}

	triggerStep := int(cfg.sampleRate * cfg.interval)
	if triggerStep < 1 {
		triggerStep = 1
	}

	pool := buffer.NewPool()
	rendered := pool.Get(totalFrames)
	defer pool.Put(rendered)

	out := rendered.Samples()

	attacks, dones := 0, 0
	triggers := make([]int, 0, 4)

	for start := 0; start < totalFrames; start += cfg.blockSize {
		end := start + cfg.blockSize
		if end > totalFrames {
			end = totalFrames
		}

		triggers = triggers[:0]
		for frame := nextMultiple(start, triggerStep); frame < end; frame += triggerStep {
			triggers = append(triggers, frame-start)
		}

		events := p.ProcessBlock(source[start:end], out[start:end], triggers)
		attacks += len(events.AttackFrames)
		dones += len(events.DoneFrames)
	}

	if err := writeWAV(cfg.outPath, out, cfg.sampleRate); err != nil {
		return err
	}

	fmt.Printf("%s: %d frames, %s mode, %d triggers, %d envelope completions\n",
		cfg.outPath, totalFrames, cfg.mode, attacks, dones)
	return nil
}

func makeSource(cfg renderConfig, frames int) ([]float64, error) {
	gen := signal.NewGenerator(
		[]core.ProcessorOption{
			core.WithSampleRate(cfg.sampleRate),
			core.WithBlockSize(cfg.blockSize),
		},
		signal.WithSeed(cfg.seed),
	)

	amplitude := cfg.amplitude * core.DBToLinear(cfg.gainDB)

	switch strings.ToLower(strings.TrimSpace(cfg.source)) {
	case "sine":
		return gen.Sine(frames, cfg.frequency, amplitude), nil
	case "noise":
		return gen.Noise(frames, amplitude), nil
	case "constant":
		return gen.Constant(frames, amplitude), nil
	}
	return nil, fmt.Errorf("unknown source %q (use sine, noise or constant)", cfg.source)
}

// nextMultiple returns the smallest multiple of step that is >= n.
func nextMultiple(n, step int) int {
	if n%step == 0 {
		return n
	}
	return (n/step + 1) * step
}

func writeWAV(path string, samples []float64, sampleRate float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := wav.NewWriter(f, uint32(len(samples)), 1, uint32(sampleRate), 16)

	frames := make([]wav.Sample, len(samples))
	for i, v := range samples {
		frames[i].Values[0] = int(core.Clamp(v, -1, 1) * math.MaxInt16)
	}

	if err := w.WriteSamples(frames); err != nil {
		return err
	}

	return f.Close()
}
