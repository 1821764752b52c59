package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	ErrWorkshopNotFound    = errors.New("workshop not found")
)
