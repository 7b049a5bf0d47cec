package domain

import "errors"

var (
	ErrNonPositivePrice  = errors.New("oracle: price_usd is zero or negative")
	ErrFutureTimestamp   = errors.New("oracle: price timestamp is from the future")
	ErrInvalidConfidence = errors.New("oracle: confidence score must be between 0 and 1")
)
