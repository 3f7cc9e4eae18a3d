package model

import "errors"

var (
	// ErrEntryNotFound is returned when an entry id is unknown to the store.
	ErrEntryNotFound = errors.New("entry: not found")

	// ErrDeviceNotFound is returned when a device id is unknown to the registry.
	ErrDeviceNotFound = errors.New("device: not found")
)
