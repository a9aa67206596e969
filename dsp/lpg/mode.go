package lpg

// Mode selects which combination of filter and envelope gain runs per block.
type Mode int

const (
	// ModeLowPass runs only the filter. The envelope is neither advanced
	// nor emitted; the cutoff input is the filter frequency in Hz.
	ModeLowPass Mode = iota
	// ModeVCA runs only the envelope as an amplitude gate: every sample of
	// the block is scaled by the block-rate envelope value.
	ModeVCA
	// ModeBoth gates and filters. The cutoff input does double duty here:
	// read as a 0-20000 linear control it scales the envelope gain, while
	// the raw value (clamped to Nyquist) still drives the filter frequency.
	ModeBoth
)

func (m Mode) String() string {
	switch m {
	case ModeLowPass:
		return "lowpass"
	case ModeVCA:
		return "vca"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

func validMode(m Mode) bool {
	return m == ModeLowPass || m == ModeVCA || m == ModeBoth
}
