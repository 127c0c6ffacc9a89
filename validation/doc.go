// Package validation provides struct validation on top of
// go-playground/validator, using mapstructure/json tag names in error
// messages so that failures point at the configuration key the user wrote.
package validation
