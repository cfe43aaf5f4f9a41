// Package validator wraps go-playground/validator behind a small injectable
// type so handlers share one configured instance.
package validator

import "github.com/go-playground/validator/v10"

type Validator struct {
	v *validator.Validate
}

// New creates a validator. Custom rules are added with RegisterValidation.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates a request struct against its validate tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates one value against a tag expression.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a named custom rule.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
