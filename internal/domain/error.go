package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidModel    = errors.New("model is not in the allowed list")
	ErrModelLocked     = errors.New("model selection is disabled for users")
	ErrNotAdmin        = errors.New("command requires admin rights")
	ErrRateLimited     = errors.New("too many requests, slow down")

	// Model client errors (see adapters/ai for classification)
	ErrModelRateLimited = errors.New("model provider rate limited the request")
	ErrModelTransient   = errors.New("transient model provider failure")
	ErrModelTimeout     = errors.New("model request timed out")
	ErrModelAuth        = errors.New("model provider rejected credentials")

	// ErrDelivery marks a failed outbound segment send. Remaining segments
	// of the same exchange are aborted; already sent ones stand.
	ErrDelivery = errors.New("message delivery failed")
)
