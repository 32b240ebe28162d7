package domain

import "errors"

// Error is a business-rule failure. Code is stable and machine-checkable; Message is for humans.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so that errors carrying a custom message still match the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrForbidden          = &Error{Code: "forbidden", Message: "operation not allowed for this role"}
	ErrNotFound           = &Error{Code: "not_found", Message: "not found"}
	ErrInvalidUmbrella    = &Error{Code: "invalid_umbrella", Message: "umbrella does not exist on the map"}
	ErrAlreadyRented      = &Error{Code: "already_rented", Message: "bed already rented"}
	ErrAlreadyOccupied    = &Error{Code: "already_occupied", Message: "bed is not free"}
	ErrNotHotelRented     = &Error{Code: "not_hotel_rented", Message: "bed is not currently rented from hotel"}
	ErrHotelRented        = &Error{Code: "hotel_rented", Message: "hotel rentals must be ended by an admin"}
	ErrNothingToRemove    = &Error{Code: "nothing_to_remove", Message: "umbrella has no extra beds"}
	ErrBedCurrentlyRented = &Error{Code: "bed_currently_rented", Message: "last extra bed is still rented"}
	ErrInvalidInput       = &Error{Code: "invalid_input", Message: "invalid input"}
	ErrStorageFailure     = &Error{Code: "storage_failure", Message: "internal server error"}
)

// CodeOf returns the machine code of err, falling back to storage_failure for non-business errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrStorageFailure.Code
}

// IsBusiness reports whether err is a business-rule failure rather than a storage failure.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code != ErrStorageFailure.Code
}
