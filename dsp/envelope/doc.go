// Package envelope provides a triggerable attack/decay generator with
// independent curve shaping per phase.
//
// The generator is block-rate: Advance computes one representative value
// per contiguous sub-range of an audio block, not one value per audio
// frame. Callers split a block at trigger edges and call Advance once per
// sub-range; the returned value is broadcast across the sub-range's frames
// by whatever consumes it.
package envelope
