package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoImage is returned by an ImageProvider when the model declined to
// produce image content.
var ErrNoImage = errors.New("no image in response")

// ErrImageUnsupported is returned by NewImageProvider for providers that
// have no image model.
var ErrImageUnsupported = errors.New("provider does not support image generation")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrUnsupportedInput indicates a provider cannot accept an attachment of
// the given media type (for example video outside Gemini).
type ErrUnsupportedInput struct {
	Provider string
	MIMEType string
}

func (e *ErrUnsupportedInput) Error() string {
	return fmt.Sprintf("%s cannot accept %s attachments", e.Provider, e.MIMEType)
}
