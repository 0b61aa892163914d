package database

import "errors"

// ErrStoreUnavailable is returned when the database cannot be opened.
var ErrStoreUnavailable = errors.New("document store unavailable")
