package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrAmbiguous is returned when an id prefix matches more than one row.
var ErrAmbiguous = errors.New("ambiguous id")
