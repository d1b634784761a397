// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument indicates bad caller input, surfaced synchronously.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidState indicates an operation that is not valid for the entity's
// current status, e.g. resuming a terminal orchestration.
var ErrInvalidState = errors.New("invalid state")

// ErrProcessFailure indicates the driving agent process was lost or exited
// abnormally. It never propagates out of the asynchronous create/resume
// calls; it surfaces as a failed status transition plus an error event.
var ErrProcessFailure = errors.New("process failure")
