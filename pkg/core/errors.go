package core

import "errors"

var (
	// ErrConfiguration marks an illegal combination of grid parameters.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrNotSupported marks an integration selector with no adapter behind it.
	ErrNotSupported = errors.New("integration not supported")
	// ErrActionShape marks an action batch that does not match the agent set.
	ErrActionShape = errors.New("invalid action shape")
	// ErrEpisodeFinished is returned when a terminated episode is stepped without a reset.
	ErrEpisodeFinished = errors.New("episode finished, reset required")
)
