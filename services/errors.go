package services

import "errors"

// Business-rule errors. Handlers map these to 400 responses; the message
// strings are part of the API surface the frontend relies on.
var (
	ErrAlreadyLiked       = errors.New("Already liked this track")
	ErrStreamTooShort     = errors.New("Stream duration must be at least 30 seconds")
	ErrNothingToClaim     = errors.New("No unclaimed rewards to claim")
	ErrClaimInFlight      = errors.New("A claim is already in progress for this address")
	ErrCooldownActive     = errors.New("Claim cooldown has not elapsed, try again later")
	ErrIntentNotFound     = errors.New("Claim intent not found")
	ErrTransactionFailed  = errors.New("Claim transaction failed on-chain")
	ErrTransactionUnknown = errors.New("Claim transaction not found on-chain")
)
