package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrJobNotFound        = errors.New("photo job not found")
	ErrJobAlreadyFinished = errors.New("photo job already reached a terminal state")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidResponse    = errors.New("malformed model response")
	ErrDownloadFailed     = errors.New("source image download failed")
)
