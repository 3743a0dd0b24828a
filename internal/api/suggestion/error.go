package suggestion

import (
	"AIService/pkg/response"
	"errors"
	"net/http"
)

const (
	UnknownIntentText   = "Could not map prediction to a known intent."
	ResponseMissingText = "Response not found."
	PredictionErrorText = "Could not generate an AI suggestion due to a prediction error."
)

var (
	ErrNoTextProvided      = response.NewError(http.StatusBadRequest, "No text provided")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")

	// ErrTextNotString marks a body whose text key holds a non-string value.
	// It is answered like an inference failure, not as a client error.
	ErrTextNotString = errors.New("text is not a string")
)
