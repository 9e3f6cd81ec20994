package handler

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"zorkdi/pkg/response"
)

func validationText(err error) string {
	var validationErr validator.ValidationErrors
	if stderrors.As(err, &validationErr) {
		return response.ValidationMessage(validationErr)
	}
	return "Invalid input data"
}
