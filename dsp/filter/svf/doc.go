// Package svf implements a topology-preserving transform (TPT)
// state-variable filter after Simper, with staged parameter updates.
//
// Parameter setters only record target values; Commit recomputes the
// filter coefficients from them. This split lets a caller memoize the last
// committed parameters and skip the trigonometric coefficient update on
// blocks where the control signal is static.
package svf
