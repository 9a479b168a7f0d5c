// Package ebm provides the core primitives for the layered energy-balance
// climate emulator.
//
// The package defines the fundamental types shared by the rest of the
// module:
//
//   - [ParameterSet]: validated physical parameters of a two- or
//     three-layer model, with the derived linear system and its cached
//     eigendecomposition
//   - [LayerState]: per-layer temperature anomalies at a point in time
//   - [StepOutput]: the state plus per-step diagnostics (effective
//     forcing, TOA net flux, ocean heat uptake)
//   - [Stepper] and [ForcingProvider]: the contracts implemented by the
//     steppers and forcing packages
//
// # Thread Safety
//
// A ParameterSet is immutable after construction and safe for concurrent
// reads; its eigendecomposition is owned by the instance and never shared
// across instances, so independent runs never couple through it.
package ebm
