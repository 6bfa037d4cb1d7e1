package apierr

import (
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// FromOpenAI classifies errors returned by the go-openai client.
// API errors are mapped by status; transport errors by ClassifyTransport.
func FromOpenAI(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		msg := apiErr.Message
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			msg += " (insufficient_quota)"
		}
		return ClassifyStatus(apiErr.HTTPStatusCode, msg)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		var msg string
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return ClassifyStatus(reqErr.HTTPStatusCode, msg)
	}

	return ClassifyTransport(err)
}
