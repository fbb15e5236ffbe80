package errors

import "errors"

// Domain errors
var (
	// Scan errors
	ErrEmptyInput   = errors.New("input cannot be empty")
	ErrUnknownKind  = errors.New("unknown scan kind")
	ErrInvalidRisk  = errors.New("invalid risk level")
	ErrInvalidState = errors.New("invalid scan status")

	// Learning errors
	ErrTrackNotFound = errors.New("track not found")
	ErrTopicNotFound = errors.New("topic not found")
	ErrEmptyMessage  = errors.New("message cannot be empty")

	// Rules errors
	ErrInvalidRules = errors.New("invalid rules table")

	// Report errors
	ErrInvalidFormat = errors.New("unsupported report format")

	// Persistence errors
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")
)
