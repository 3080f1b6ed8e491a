package utils

import "github.com/go-playground/validator/v10"

// Validator — адаптер validator/v10 под echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(validate *validator.Validate) *Validator {
	return &Validator{validate: validate}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
