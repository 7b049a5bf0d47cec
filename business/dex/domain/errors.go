package domain

import "errors"

var (
	ErrNoAdapters       = errors.New("dex: no adapters registered")
	ErrNoRouteFound     = errors.New("dex: no route found for pair")
	ErrUnsupportedPair  = errors.New("dex: pair not supported by adapter")
	ErrAdapterNotFound  = errors.New("dex: named adapter not found")
	ErrQuoteStale       = errors.New("dex: quote has expired")
)
