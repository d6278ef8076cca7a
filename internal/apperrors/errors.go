package apperrors

import "errors"

// ErrNotFound indicates that a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrValidation indicates that the caller supplied input the ledger rejects.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates a uniqueness conflict (e.g. category name).
var ErrDuplicate = errors.New("record already exists")
