// Package engineerr defines the sentinel error kinds raised across the
// engine, per the error handling table in the engine specification.
package engineerr

import "errors"

var (
	// ErrResourceLoad is raised when a resource file fails to parse.
	ErrResourceLoad = errors.New("resource-load")

	// ErrResourceReservedByOther is raised when a pool load or reserve call
	// finds a reservation held by a different owner.
	ErrResourceReservedByOther = errors.New("resource-reserved-by-other")

	// ErrResourceNotMeetConstraint is raised by a case's CollectResource when
	// the resource pool cannot satisfy the declared constraints.
	ErrResourceNotMeetConstraint = errors.New("resource-not-meet-constraint")

	// ErrCaseImport is raised when a case reference cannot be resolved
	// against the case registry.
	ErrCaseImport = errors.New("case-import")

	// ErrEngineNotReady is raised by Start when the runner lacks a loaded
	// pool or test list.
	ErrEngineNotReady = errors.New("engine-not-ready")

	// ErrResourceIsLocked is raised by the lock pool when a lock request
	// times out.
	ErrResourceIsLocked = errors.New("resource-is-locked")

	// ErrInvalidLockOperation is raised by the lock pool on a release that
	// does not match the current holder, or a release of an unlocked name.
	ErrInvalidLockOperation = errors.New("invalid-lock-operation")

	// ErrSettingError names the setting-error kind. casemodel.SettingStore
	// returns plain wrapped errors and does not use it.
	ErrSettingError = errors.New("setting-error")

	// ErrTestListError is raised by the list loader for a top-level list
	// parse failure (sub-list failures are swallowed unless Strict).
	ErrTestListError = errors.New("test-list-error")

	// ErrConstraintNotMet is raised by collect_connection_route when any
	// connection constraint in the chain yields zero matches.
	ErrConstraintNotMet = errors.New("constraint-not-met")

	// ErrMethodNotFound is raised by the data-driven substitution step when
	// a <func:name> token names a method the case does not have.
	ErrMethodNotFound = errors.New("method-not-found")
)
