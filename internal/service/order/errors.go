package order

import "errors"

var (
	// ErrNotFound is returned by repositories when no order matches.
	ErrNotFound = errors.New("order not found")

	// ErrMissingOrderID is returned when a webhook payload resolves no
	// external order id under any known alias.
	ErrMissingOrderID = errors.New("missing external order id")
)
