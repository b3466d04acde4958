// Package order contains the Order aggregate and its supporting value
// objects: the Status state machine that drives the fulfillment lifecycle,
// the shipping Address, and the Priority tag.
//
// The Order aggregate is owned exclusively by its process instance. External
// callers interact with it only through commands routed by the command
// gateway; the aggregate enforces that every status change follows the
// directed transition graph, that approval happens exactly once before
// charging, and that cancellation is impossible once the charge committed.
package order
