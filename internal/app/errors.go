package app

import "errors"

var (
	// ErrValidation wraps every client-side form validation failure.
	ErrValidation = errors.New("invalid input")
	// ErrNotLoggedIn is returned by operations that need a current user.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrLoginFailed is returned when the backend rejects credentials.
	ErrLoginFailed = errors.New("login failed")
	// ErrEmailTaken is returned by Register for a duplicate email.
	ErrEmailTaken = errors.New("user with given email already exists")

	ErrAlreadySignedUp        = errors.New("already signed up for this jam session")
	ErrNoInstruments          = errors.New("no instruments in profile")
	ErrInstrumentNotInProfile = errors.New("instrument not listed in profile")
	ErrSlotFull               = errors.New("all slots for this instrument are taken")
	// ErrNotAllowed rejects owner or admin actions by other users.
	ErrNotAllowed = errors.New("not allowed")

	// ErrInUse is returned when a catalog entry is still referenced.
	ErrInUse = errors.New("in use")
	// ErrAlreadyExists is returned when a catalog entry cannot be added.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNestedReply rejects a reply to a reply.
	ErrNestedReply = errors.New("replies can only be added to top-level comments")
	// ErrUnsupportedImage rejects profile pictures that are not JPG or PNG.
	ErrUnsupportedImage = errors.New("unsupported image format")
)
