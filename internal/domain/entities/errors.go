package entities

import "errors"

var (
	// ErrEmptyEvent is returned when a source-control event carries no
	// record or no reference to act upon.
	ErrEmptyEvent = errors.New("event has no commit reference")

	// ErrMissingRepository is returned when neither the event nor the
	// settings name the source repository.
	ErrMissingRepository = errors.New("source repository is not known")

	// ErrInvalidCommitID is returned for commit ids that cannot name a
	// requirements file.
	ErrInvalidCommitID = errors.New("invalid commit id")

	// ErrInvalidRequirement is returned for requirement tokens that cannot be
	// turned into a package name and version.
	ErrInvalidRequirement = errors.New("invalid requirement")

	// ErrPackageNotFound marks a package that does not exist (yet) in the
	// target package repository. Callers treat it as "no versions published".
	ErrPackageNotFound = errors.New("package not found in repository")

	// ErrIndexPackageNotFound marks a package unknown to the public index.
	ErrIndexPackageNotFound = errors.New("package not found on index")

	// ErrUnknownBackend is returned by registries for unregistered names.
	ErrUnknownBackend = errors.New("unknown backend")
)
