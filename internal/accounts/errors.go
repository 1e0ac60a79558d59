package accounts

import "errors"

var (
	// ErrNotFound is returned when an account does not exist or a practitioner
	// lookup does not match a verified practitioner.
	ErrNotFound = errors.New("account not found")

	// ErrMissingAccountID is returned when no identity was supplied.
	ErrMissingAccountID = errors.New("account id is required")

	// ErrMissingProfile is returned when name or email are absent.
	ErrMissingProfile = errors.New("name and email are required")

	// ErrInvalidRole is returned for a role outside CLIENT/PRACTITIONER.
	ErrInvalidRole = errors.New("invalid role selection")

	// ErrIncompleteApplication is returned when a practitioner application is
	// missing speciality, experience, credential URL or description.
	ErrIncompleteApplication = errors.New("practitioner application requires speciality, experience, credential url and description")

	// ErrAlreadyOnboarded is returned when the account already picked a role.
	ErrAlreadyOnboarded = errors.New("account already onboarded")

	// ErrInvalidVerification is returned for a verification status outside
	// VERIFIED/REJECTED.
	ErrInvalidVerification = errors.New("verification status must be VERIFIED or REJECTED")
)
