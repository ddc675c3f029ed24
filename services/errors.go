package services

import "errors"

// ErrValidation marks client input that is missing or malformed. Requests
// failing validation are rejected before any upstream call is attempted.
var ErrValidation = errors.New("validation failed")

// ErrSchemaValidation marks an oracle response that does not conform to the
// expected output shape. It is fatal for the request that produced it and
// is never retried.
var ErrSchemaValidation = errors.New("oracle response schema validation failed")
