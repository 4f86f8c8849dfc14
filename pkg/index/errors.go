package index

import "errors"

var (
	// ErrStoreUnavailable means the persistent store could not be opened
	// or probed. Fatal for Initialize; there is no internal retry.
	ErrStoreUnavailable = errors.New("index store unavailable")

	// ErrRebuildInProgress rejects a rebuild requested while one is
	// running. Non-fatal; the caller retries later.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")

	// ErrNotInitialized means Initialize has not succeeded yet.
	ErrNotInitialized = errors.New("index manager not initialized")
)
