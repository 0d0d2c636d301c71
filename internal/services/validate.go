package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	msgThoughtMissing  = "Could not save thought. Message missing"
	msgThoughtTooShort = "Text is shorter than minimum allowed length of 5"
	msgUserMissing     = "Could not create user. User or password missing"
	msgPasswordMissing = "password missing in the body of request"
	msgPasswordTooLong = "password must be at most 72 bytes"
)

// thoughtInput counts message length in code points; validator's min
// tag measures strings with utf8.RuneCountInString.
type thoughtInput struct {
	Message string `validate:"required,min=5"`
}

type registerInput struct {
	Name     string `validate:"required"`
	Password string `validate:"required"`
}

type loginInput struct {
	Password string `validate:"required"`
}

// fieldMessages maps "Struct.Field.tag" to the client facing message.
var fieldMessages = map[string]string{
	"thoughtInput.Message.required":   msgThoughtMissing,
	"thoughtInput.Message.min":        msgThoughtTooShort,
	"registerInput.Name.required":     msgUserMissing,
	"registerInput.Password.required": msgUserMissing,
	"loginInput.Password.required":    msgPasswordMissing,
}

func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	first := fieldErrs[0]
	message, ok := fieldMessages[first.Namespace()+"."+first.Tag()]
	if !ok {
		message = first.Field() + " is invalid"
	}
	return NewValidationError(first.Field(), message)
}
