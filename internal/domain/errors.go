package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrUntrainedModel is returned when a prediction is requested from a
	// classifier that has not been trained or loaded.
	ErrUntrainedModel = errors.New("classifier is not trained")

	// ErrInsufficientTrainingData is returned when Train receives fewer than
	// two samples or only a single label class, leaving accuracy and AUC
	// undefined.
	ErrInsufficientTrainingData = errors.New("insufficient or single-class training data")

	// ErrModelCorrupt is returned when a persisted classifier snapshot fails
	// to decode or carries an unsupported version.
	ErrModelCorrupt = errors.New("corrupt classifier snapshot")
)
