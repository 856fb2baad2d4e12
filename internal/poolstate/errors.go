package poolstate

import "errors"

// ErrStale is returned when the cache was invalidated while a refresh was
// reading; its results were discarded.
var ErrStale = errors.New("refresh discarded: cache invalidated")
