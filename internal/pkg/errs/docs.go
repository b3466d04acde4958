// Package errs provides standardized error types for the fulfillment
// application. It implements a consistent pattern for error creation,
// formatting, and unwrapping that is used throughout the module.
//
// Each error type follows the same shape:
//   - a sentinel error variable (e.g. ErrObjectNotFound)
//   - a struct type with fields for error details
//   - constructor functions with and without a cause
//   - Error() for formatting and Unwrap() for errors.Is classification
//
// The HTTP adapter relies on these sentinels to map failures onto status
// codes, and the command gateway uses them for its error taxonomy
// (ObjectNotFoundError for unknown orders, ObjectAlreadyExistsError for a
// repeated start, ValueIsInvalid/ValueIsRequired for validation failures).
package errs
