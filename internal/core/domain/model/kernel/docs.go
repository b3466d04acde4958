// Package kernel provides core domain primitives for the fulfillment system.
// It implements the fundamental building blocks shared by all aggregates.
//
// The package currently contains:
//   - UUID: a value object for unique identifiers with validation and comparison
//
// Kernel primitives are immutable and thread-safe, and enforce their
// invariants through constructor functions rather than exported fields.
package kernel
