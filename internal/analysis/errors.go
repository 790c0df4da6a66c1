package analysis

import "errors"

var (
	// ErrInvalidObservation marks an observation with a negative engagement
	// weight or an out-of-range compound polarity. Aggregation of the whole
	// run aborts on the first one: data integrity over partial results.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrInvalidWeight marks a source weight outside [0,1], reported at
	// ranker construction time before any scoring happens.
	ErrInvalidWeight = errors.New("invalid source weight")
)
