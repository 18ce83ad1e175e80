// Package validation checks configuration structs against their
// `validate:"..."` tags using go-playground/validator.
//
//	if err := validation.Validate(job); err != nil {
//	    // *errors.AppError with code INVALID_INPUT
//	}
package validation
