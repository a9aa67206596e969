// Package lpg implements a Buchla-style low-pass gate: a triggerable
// attack/decay envelope driving a voltage-controlled low-pass filter, an
// amplitude gate, or both at once.
//
// The processor works on fixed-size audio blocks. Each block it refreshes
// envelope parameters, splits the block at incoming trigger edges,
// advances the envelope once per sub-range (block-rate, not per sample),
// and dispatches on the operating mode to produce the output audio plus
// "attack started" and "envelope done" trigger events.
package lpg
