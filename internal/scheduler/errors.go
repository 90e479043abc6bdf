package scheduler

import "errors"

var (
	errInvalidThreadCount = errors.New("scheduler: thread count must be positive")
	errInvalidRatio       = errors.New("scheduler: ratio_check_local_first must satisfy 0 <= num < den")
	errAlreadyStarted     = errors.New("scheduler: already started")
	errNotStarted         = errors.New("scheduler: not started")
)
