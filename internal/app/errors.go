package service

import "errors"

// Sentinel kinds for coordinator errors.
var (
	ErrNotStarted  = errors.New("coordinator not started")
	ErrBadSelector = errors.New("unknown period selector")
	ErrBadGrouping = errors.New("unknown grouping dimension")
	ErrBadPageSize = errors.New("invalid page size")
)
