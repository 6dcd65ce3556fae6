package funnel

import "errors"

var (
	// ErrContactRequired is returned when a lead carries neither an email
	// nor a phone number.
	ErrContactRequired = errors.New("at least one of email or phone is required")

	// ErrUnknownEvent is returned for event names outside the allow-list.
	ErrUnknownEvent = errors.New("unknown event name")
)
