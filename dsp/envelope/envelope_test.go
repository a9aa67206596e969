package envelope

import (
	"math"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		wantErr    bool
	}{
		{"valid 44100", 44100, false},
		{"valid 48000", 48000, false},
		{"invalid zero", 0, true},
		{"invalid negative", -1, true},
		{"invalid NaN", math.NaN(), true},
		{"invalid +Inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGenerator() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && g == nil {
				t.Error("NewGenerator() returned nil without error")
			}
		})
	}
}

func TestNewGeneratorOptions(t *testing.T) {
	g, err := NewGenerator(48000, WithAttackTime(0.5), WithDecayTime(2), WithCurves(2, 0.5))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if g.AttackSampleCount() != 24000 {
		t.Errorf("AttackSampleCount() = %d, want 24000", g.AttackSampleCount())
	}

	if g.DecaySampleCount() != 96000 {
		t.Errorf("DecaySampleCount() = %d, want 96000", g.DecaySampleCount())
	}

	if _, err := NewGenerator(48000, WithAttackTime(-1)); err == nil {
		t.Error("negative attack time should fail")
	}

	if _, err := NewGenerator(48000, WithCurves(math.NaN(), 1)); err == nil {
		t.Error("NaN curve factor should fail")
	}
}

// TestInstantAttack verifies that an attack of a single sample reaches 1.0
// on the first advance from idle.
func TestInstantAttack(t *testing.T) {
	g, _ := NewGenerator(48000)
	g.SetTimes(0, 1)
	g.UpdateParams()

	if g.AttackSampleCount() != 1 {
		t.Fatalf("AttackSampleCount() = %d, want 1", g.AttackSampleCount())
	}

	g.Trigger(false)

	v, done := g.Advance(0, 64)
	if v != 1.0 {
		t.Errorf("first advance = %f, want exactly 1.0", v)
	}

	if done {
		t.Error("envelope should not be done after instant attack")
	}
}

// TestLinearDecay verifies that a decay curve factor of 1.0 produces a
// linear ramp: value at fractional decay position f equals 1-f.
func TestLinearDecay(t *testing.T) {
	const decaySteps = 10

	g, _ := NewGenerator(1) // 1 Hz so seconds map directly to steps
	g.SetTimes(1, decaySteps)
	g.SetCurves(1, 1)
	g.UpdateParams()
	g.Trigger(false)

	// Instant attack step.
	if v, _ := g.Advance(0, 1); v != 1 {
		t.Fatalf("attack value = %f, want 1", v)
	}

	for i := 0; i < decaySteps; i++ {
		want := 1 - float64(i)/decaySteps

		v, done := g.Advance(0, 1)
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("decay step %d = %f, want %f", i, v, want)
		}

		if done {
			t.Fatalf("premature done at decay step %d", i)
		}
	}

	v, done := g.Advance(0, 1)
	if !done || v != 0 {
		t.Errorf("completion advance = (%f, %v), want (0, true)", v, done)
	}
}

// TestAdvanceNoOp verifies the defined no-op: startFrame > 0 or idle state
// returns 0 and never mutates the generator.
func TestAdvanceNoOp(t *testing.T) {
	g, _ := NewGenerator(48000)

	// Idle, startFrame 0.
	if v, done := g.Advance(0, 64); v != 0 || done {
		t.Errorf("idle advance = (%f, %v), want (0, false)", v, done)
	}

	// Active, startFrame > 0.
	g.SetTimes(1, 1)
	g.UpdateParams()
	g.Trigger(false)

	before := g.index
	if v, done := g.Advance(32, 64); v != 0 || done {
		t.Errorf("mid-block advance = (%f, %v), want (0, false)", v, done)
	}

	if g.index != before {
		t.Errorf("mid-block advance mutated index: %d -> %d", before, g.index)
	}
}

// TestCompletion verifies exactly one done report for a full attack+decay
// run, on the advance following the final envelope step.
func TestCompletion(t *testing.T) {
	const (
		attackSteps = 4
		decaySteps  = 6
	)

	g, _ := NewGenerator(1)
	g.SetTimes(attackSteps, decaySteps)
	g.UpdateParams()
	g.Trigger(false)

	doneCount := 0
	for i := 0; i < attackSteps+decaySteps+1; i++ {
		_, done := g.Advance(0, 1)
		if done {
			doneCount++

			if i != attackSteps+decaySteps {
				t.Errorf("done on advance %d, want %d", i, attackSteps+decaySteps)
			}
		}
	}

	if doneCount != 1 {
		t.Errorf("done count = %d, want 1", doneCount)
	}

	if g.Active() {
		t.Error("generator should be idle after completion")
	}

	// Further advances stay silent and idle.
	if v, done := g.Advance(0, 1); v != 0 || done {
		t.Errorf("post-completion advance = (%f, %v), want (0, false)", v, done)
	}
}

// TestRetriggerContinuity verifies that a soft retrigger mid-decay starts
// the new attack at or above the current value.
func TestRetriggerContinuity(t *testing.T) {
	g, _ := NewGenerator(1)
	g.SetTimes(4, 10)
	g.UpdateParams()
	g.Trigger(false)

	// Run through the attack and partway into the decay.
	for i := 0; i < 4+5; i++ {
		g.Advance(0, 1)
	}

	v := g.Value()
	if v <= 0 || v >= 1 {
		t.Fatalf("expected mid-decay value in (0, 1), got %f", v)
	}

	g.Trigger(false)

	for i := 0; i < 4; i++ {
		next, _ := g.Advance(0, 1)
		if next < v {
			t.Errorf("attack step %d = %f, below retrigger baseline %f", i, next, v)
		}
	}
}

// TestHardResetRetrigger verifies that a hard reset restarts the attack
// from zero regardless of the current value.
func TestHardResetRetrigger(t *testing.T) {
	g, _ := NewGenerator(1)
	g.SetTimes(4, 10)
	g.UpdateParams()
	g.Trigger(false)

	for i := 0; i < 6; i++ {
		g.Advance(0, 1)
	}

	g.Trigger(true)

	// First attack fraction is 0, so the output restarts at the origin.
	if v, _ := g.Advance(0, 1); v != 0 {
		t.Errorf("hard-reset first attack value = %f, want 0", v)
	}
}

// TestCurveFactorClamping verifies that zero and negative curve factors are
// clamped and never produce NaN or Inf output.
func TestCurveFactorClamping(t *testing.T) {
	for _, factor := range []float64{0, -1, -100} {
		g, _ := NewGenerator(1)
		g.SetTimes(5, 5)
		g.SetCurves(factor, factor)
		g.UpdateParams()
		g.Trigger(false)

		for i := 0; i < 11; i++ {
			v, _ := g.Advance(0, 1)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("curve factor %f produced non-finite value %f at step %d", factor, v, i)
			}

			if v < 0 || v > 1 {
				t.Errorf("curve factor %f produced out-of-range value %f at step %d", factor, v, i)
			}
		}
	}
}

// TestCurveShapes verifies the documented curve semantics: attack factors
// above 1 grow slower than linear early on, decay factors above 1 fall
// slower than linear early on.
func TestCurveShapes(t *testing.T) {
	value := func(attackCurve, decayCurve float64, steps int) float64 {
		g, _ := NewGenerator(1)
		g.SetTimes(10, 10)
		g.SetCurves(attackCurve, decayCurve)
		g.UpdateParams()
		g.Trigger(true)

		var v float64
		for i := 0; i < steps; i++ {
			v, _ = g.Advance(0, 1)
		}
		return v
	}

	// Early attack, 3 of 10 steps in.
	linear := value(1, 1, 3)

	if exp := value(2, 1, 3); exp >= linear {
		t.Errorf("attack curve 2.0 early value %f should be below linear %f", exp, linear)
	}

	if log := value(0.5, 1, 3); log <= linear {
		t.Errorf("attack curve 0.5 early value %f should be above linear %f", log, linear)
	}

	// Early decay, 3 of 10 decay steps in (10 attack steps first).
	linearDecay := value(1, 1, 13)

	if slow := value(1, 2, 13); slow <= linearDecay {
		t.Errorf("decay curve 2.0 early value %f should be above linear %f", slow, linearDecay)
	}

	if fast := value(1, 0.5, 13); fast >= linearDecay {
		t.Errorf("decay curve 0.5 early value %f should be below linear %f", fast, linearDecay)
	}
}

func TestSampleCountFloor(t *testing.T) {
	g, _ := NewGenerator(48000)
	g.SetTimes(0, 0)
	g.UpdateParams()

	if g.AttackSampleCount() != 1 || g.DecaySampleCount() != 1 {
		t.Errorf("zero times should floor counts to 1, got %d/%d",
			g.AttackSampleCount(), g.DecaySampleCount())
	}

	g.SetTimes(math.NaN(), math.Inf(1))
	g.UpdateParams()

	if g.AttackSampleCount() != 1 || g.DecaySampleCount() != 1 {
		t.Errorf("non-finite times should floor counts to 1, got %d/%d",
			g.AttackSampleCount(), g.DecaySampleCount())
	}
}

func TestReset(t *testing.T) {
	g, _ := NewGenerator(1)
	g.SetTimes(4, 4)
	g.UpdateParams()
	g.Trigger(false)
	g.Advance(0, 1)
	g.Advance(0, 1)

	g.Reset()

	if g.Active() {
		t.Error("Reset should leave the generator idle")
	}

	if g.Value() != 0 {
		t.Errorf("Value() after Reset = %f, want 0", g.Value())
	}
}
