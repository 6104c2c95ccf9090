package chat

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// inboundMessage mirrors the bounds of the messages table: sender fits
// VARCHAR(20), text fits VARCHAR(300). Values are trimmed before validation,
// so "required" also rejects blank input.
type inboundMessage struct {
	Sender string `validate:"required,max=20"`
	Text   string `validate:"required,min=1,max=300"`
}

func validateMessage(sender, text string) error {
	if err := validate.Struct(inboundMessage{Sender: sender, Text: text}); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) || len(errs) == 0 {
			return &ValidationError{Reason: "invalid message"}
		}
		switch errs[0].Field() {
		case "Sender":
			return &ValidationError{Reason: "sender is required and must be at most 20 characters"}
		default:
			return &ValidationError{Reason: "text is required and must be between 1 and 300 characters"}
		}
	}
	return nil
}

func validateText(text string) error {
	if err := validate.Var(text, "required,min=1,max=300"); err != nil {
		return &ValidationError{Reason: "text is required and must be between 1 and 300 characters"}
	}
	return nil
}
