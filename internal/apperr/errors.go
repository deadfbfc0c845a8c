package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRepoUnavailable = errors.New("repository unavailable")
	ErrConflict        = errors.New("conflict")
)
