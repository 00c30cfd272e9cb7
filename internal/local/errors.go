package local

import "errors"

var (
	// ErrModelNotFound is returned when a model reference matches nothing.
	ErrModelNotFound = errors.New("model not found")

	// ErrModelTooSmall is returned when a model file is below the minimum size.
	ErrModelTooSmall = errors.New("model file too small")

	// ErrInsufficientSpace is returned when the models directory is too full
	// for a download.
	ErrInsufficientSpace = errors.New("not enough disk space")

	// ErrAllStrategiesFailed is returned when no load strategy succeeded.
	ErrAllStrategiesFailed = errors.New("all loading strategies failed")

	// ErrNotLoaded is returned when generating before a model is bound.
	ErrNotLoaded = errors.New("no model loaded")

	// ErrEngineUnavailable is returned when the inference server cannot be reached.
	ErrEngineUnavailable = errors.New("local inference server unavailable")
)
