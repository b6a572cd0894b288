package payments

import "errors"

var (
	// ErrSignatureInvalid is returned when the cryptographic check of a raw
	// notification fails: wrong secret, tampered payload, or a timestamp
	// outside the tolerance window.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrUnsupportedEventShape is returned when a payload passes the
	// signature check but cannot be parsed into any event at all.
	ErrUnsupportedEventShape = errors.New("unsupported event shape")

	// ErrUnknownProvider is returned when no adapter is registered for the
	// requested provider name.
	ErrUnknownProvider = errors.New("unknown payment provider")

	// ErrMetadataInvalid is returned when required booking metadata is
	// missing or malformed. Events failing this way are dead-lettered.
	ErrMetadataInvalid = errors.New("webhook metadata validation failed")

	// ErrTenantNotFound is returned when the tenant referenced by event
	// metadata does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantInactive is returned when the tenant exists but may not
	// receive bookings.
	ErrTenantInactive = errors.New("tenant inactive")

	// ErrInvalidCommissionConfig is returned for commission rates outside
	// [0, 100] or an inactive tenant config.
	ErrInvalidCommissionConfig = errors.New("invalid commission configuration")

	// ErrLedgerRecordMissing indicates a status transition was attempted on
	// a ledger record that was never created. This is a programming error,
	// not an operational condition.
	ErrLedgerRecordMissing = errors.New("webhook ledger record missing")

	// ErrStorageUnavailable wraps transient storage failures. The ingress
	// answers these with a retryable status so the provider redelivers.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
