package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownKind is returned when a kind name cannot be parsed.
	ErrUnknownKind = zerr.New("unknown kind, expected 'template', 'layout' or 'partial'")

	// ErrInvalidContext is returned when a context identifier cannot be parsed.
	ErrInvalidContext = zerr.New("invalid context, expected 'site' or 'site:mode'")

	// ErrUnknownContext is returned when a query names a context the workspace does not declare.
	ErrUnknownContext = zerr.New("unknown context")

	// ErrConfigNotFound is returned when no workspace configuration can be found.
	ErrConfigNotFound = zerr.New("could not find workspace configuration")

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the configuration file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidRootPath is returned when a configured root path is empty or not a valid pattern.
	ErrInvalidRootPath = zerr.New("invalid root path")

	// ErrInvalidSuffix is returned when a configured template suffix does not start with a dot.
	ErrInvalidSuffix = zerr.New("invalid template suffix")

	// ErrInvalidIgnorePattern is returned when a configured ignore pattern is not a valid glob.
	ErrInvalidIgnorePattern = zerr.New("invalid ignore pattern")

	// ErrInvalidDebounce is returned when the debounce window cannot be parsed.
	ErrInvalidDebounce = zerr.New("invalid debounce window")

	// ErrDuplicateContext is returned when a workspace declares the same context twice.
	ErrDuplicateContext = zerr.New("duplicate context")

	// ErrFileReadFailed is returned when a template file cannot be read.
	ErrFileReadFailed = zerr.New("failed to read template file")

	// ErrMalformedTemplate is returned when a file's markers cannot be scanned.
	ErrMalformedTemplate = zerr.New("malformed template markers")

	// ErrFileNotIndexed is returned when a flatten entry point is not a known file.
	ErrFileNotIndexed = zerr.New("file is not indexed")

	// ErrIndexInconsistent is returned by consistency checks when the reverse include
	// index is not the exact inverse of the forward index.
	ErrIndexInconsistent = zerr.New("include index inconsistent")

	// ErrCatalogInconsistent is returned when a catalog candidate lies outside its context's roots.
	ErrCatalogInconsistent = zerr.New("implementation catalog inconsistent")

	// ErrWalkFailed is returned when the workspace tree cannot be walked.
	ErrWalkFailed = zerr.New("failed to walk workspace")

	// ErrCoordinatorStopped is returned when a request reaches a coordinator that is not running.
	ErrCoordinatorStopped = zerr.New("coordinator is not running")

	// ErrNotResolved is returned when a queried name has no implementation. The
	// result has already been reported, so callers only need to fail.
	ErrNotResolved = zerr.New("name is not resolved")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")
)
