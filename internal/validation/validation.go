// Package validation checks request payloads and email syntax.
//
// Payload rules live in `validate` struct tags enforced by
// go-playground/validator; failures come back as errs.FieldError lists the
// client can show next to each input.
package validation
