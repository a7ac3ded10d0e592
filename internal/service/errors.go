package service

import "errors"

var (
	// ErrDuplicateCode is returned when a coupon with the same code is already stored
	ErrDuplicateCode = errors.New("coupon code already exists")

	// ErrAIValidationUnavailable is returned when AI-assisted matching is switched on.
	// The AI matching path has no defined contract yet.
	ErrAIValidationUnavailable = errors.New("AI validation not available")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyGeneratedCode is returned when the code generator produced nothing usable
	ErrEmptyGeneratedCode = errors.New("generated coupon code is empty")
)
