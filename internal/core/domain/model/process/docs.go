// Package process contains the durable bookkeeping model of an order
// process: the Instance record (current step, pending-command FIFO, shipping
// attempt counter, suspend deadline, idempotency key), the closed Signal
// command union with its single per-state validity table, and the
// append-only Event audit record.
package process
