package domain

import (
	"statusflow/bizerror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the validate tags of v, wrapping failures as bad parameters.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return &bizerror.ErrBadParam{Cause: err}
	}
	return nil
}
