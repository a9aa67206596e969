package signal

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lpg/dsp/core"
)

func TestSine(t *testing.T) {
	g := NewGenerator([]core.ProcessorOption{core.WithSampleRate(48000)})

	buf := g.Sine(48000, 1, 0.5)
	if len(buf) != 48000 {
		t.Fatalf("len = %d, want 48000", len(buf))
	}

	if buf[0] != 0 {
		t.Errorf("sine[0] = %f, want 0", buf[0])
	}

	// Quarter period of a 1 Hz tone at 48 kHz.
	if v := buf[12000]; math.Abs(v-0.5) > 1e-9 {
		t.Errorf("sine peak = %f, want 0.5", v)
	}
}

func TestImpulse(t *testing.T) {
	g := NewGenerator(nil)

	buf := g.Impulse(8, 3)
	for i, v := range buf {
		want := 0.0
		if i == 3 {
			want = 1
		}

		if v != want {
			t.Errorf("impulse[%d] = %f, want %f", i, v, want)
		}
	}

	if out := g.Impulse(4, 99); out[3] != 1 {
		t.Error("out-of-range offset should clamp to the final frame")
	}

	if out := g.Impulse(0, 0); len(out) != 0 {
		t.Error("zero frames should produce empty buffer")
	}
}

func TestNoiseDeterminism(t *testing.T) {
	a := NewGenerator(nil, WithSeed(7)).Noise(64, 1)
	b := NewGenerator(nil, WithSeed(7)).Noise(64, 1)

	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same seed should reproduce the same noise")
		}

		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("noise[%d] = %f out of range", i, a[i])
		}
	}

	c := NewGenerator(nil, WithSeed(8)).Noise(64, 1)

	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}

	if same {
		t.Error("different seeds should produce different noise")
	}
}

func TestConstant(t *testing.T) {
	buf := NewGenerator(nil).Constant(16, 0.25)
	for i, v := range buf {
		if v != 0.25 {
			t.Fatalf("constant[%d] = %f, want 0.25", i, v)
		}
	}
}
