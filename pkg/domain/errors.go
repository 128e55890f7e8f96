package domain

import "errors"

// ErrInvalidConfig is returned when a configuration is missing or has no states.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNotLoaded is returned when an operation needs a loaded configuration.
var ErrNotLoaded = errors.New("no configuration loaded")

// ErrReplayInProgress is returned for operations attempted while a replay runs.
var ErrReplayInProgress = errors.New("replay in progress")
