package ai

import "errors"

var (
	// ErrRetriesExhausted is returned when every attempt of a retried call failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrMalformedPayload is returned when a model response is not the expected JSON shape.
	ErrMalformedPayload = errors.New("malformed model payload")

	// ErrUnknownTag is returned when the model names a tag that is not in the catalog.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrAmbiguousCatalog is returned when catalog tag names collide under case folding.
	ErrAmbiguousCatalog = errors.New("ambiguous tag catalog")

	// ErrEmptyResponse is returned when the model produced no choices.
	ErrEmptyResponse = errors.New("empty model response")
)
