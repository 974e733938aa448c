package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when the source path is empty.
	ErrNoSource = errors.New("no source specified: provide a path to scan")

	// ErrNoKinds is returned when no annotation kind is configured.
	ErrNoKinds = errors.New("no annotation kinds specified")

	// ErrInvalidFormat is returned for an unknown output format.
	ErrInvalidFormat = errors.New("invalid format: must be one of text, json, markdown, html")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrNoDBDir is returned when snapshots are enabled without a database directory.
	ErrNoDBDir = errors.New("snapshot requires a database directory")

	// ErrConfigNotFound is returned when an explicitly requested
	// configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
