package domain

import "errors"

var (
	ErrEmptyPayload        = errors.New("empty payload")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrUnsuccessfulStatus  = errors.New("unsuccessful status code")
	ErrDescriptorCancelled = errors.New("request descriptor cancelled")
)
