package config

import "errors"

// Configuration validation errors, returned by Config.Validate().
var (
	// ErrNoStore is returned when no database directory is configured.
	ErrNoStore = errors.New("no document store: set --db-dir or db_dir in the config file")

	// ErrInvalidNamespace is returned for a negative namespace number.
	ErrInvalidNamespace = errors.New("invalid namespace: must be non-negative")

	// ErrInvalidTimeout is returned when the render timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid render timeout: must be positive")

	// ErrInvalidConcurrency is returned when the render concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --wikitext is given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: use only one of --json, --markdown and --wikitext")

	// ErrUnknownRenderer is returned for a renderer other than local or api.
	ErrUnknownRenderer = errors.New("unknown renderer: must be \"local\" or \"api\"")

	// ErrNoAPIEndpoint is returned when the api renderer has no endpoint.
	ErrNoAPIEndpoint = errors.New("the api renderer needs --api-endpoint")
)
