package pipeline

import "errors"

var (
	// ErrValidation indicates the submitted URL could not be processed
	ErrValidation = errors.New("failed to process video URL")
	// ErrNotFound indicates the video does not exist or is not owned by the
	// caller; the two cases are deliberately indistinguishable
	ErrNotFound = errors.New("video not found")
	// ErrPersistence indicates a store write failed
	ErrPersistence = errors.New("persistence failure")
)
