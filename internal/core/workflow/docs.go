// Package workflow drives the order fulfillment process. It contains the
// engine that owns one runner goroutine per in-flight order, the idempotent
// payment ledger, and the retried shipping subprocess.
//
// The package includes:
//   - Engine: the single command gateway; serializes commands per order and
//     resumes interrupted processes from their persisted state
//   - runner: the per-order state machine loop with its durable command FIFO
//   - Ledger: at-most-once payment settlement keyed by idempotency key
//   - shippingSubprocess: the two-step shipping child with per-step deadlines
//
// Key process rules:
//   - Every state transition is persisted before the process moves on, so a
//     restart resumes exactly where the last commit left the order
//   - The approval wait deadline is persisted and carried across restarts;
//     a restart never grants a fresh approval window
//   - A cancel queued together with an approve wins the race
//   - The payment charge happens at most once per idempotency key even
//     across crashes and concurrent attempts
package workflow
