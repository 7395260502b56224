package service

import "errors"

var (
	// ErrOfferNotFound is returned when an offer does not exist
	ErrOfferNotFound = errors.New("offer not found")

	// ErrEventNotFound is returned when an event does not exist
	ErrEventNotFound = errors.New("event not found")

	// ErrNotParticipant is returned when the caller is neither party of the offer
	ErrNotParticipant = errors.New("user is not a participant of this offer")

	// ErrNotYourTurn is returned when the caller acts out of turn
	ErrNotYourTurn = errors.New("it is not this party's turn to act")

	// ErrInvalidTransition is returned when the requested action is not
	// allowed from the offer's current status
	ErrInvalidTransition = errors.New("action not allowed in current offer status")

	// ErrOfferNotAccepted is returned when a contract action targets an
	// offer that is not accepted
	ErrOfferNotAccepted = errors.New("offer is not accepted")

	// ErrStaleWrite is returned when an update loses a concurrent race.
	// Callers should re-read the offer and retry with the fresh version.
	ErrStaleWrite = errors.New("offer was modified by someone else, reload and retry")

	// ErrNotExpirable is returned when an expiry is attempted on an offer
	// that has no passed deadline
	ErrNotExpirable = errors.New("offer validity window has not passed")

	// ErrWrongRole is returned when the caller's role cannot perform the action
	ErrWrongRole = errors.New("caller role cannot perform this action")
)
