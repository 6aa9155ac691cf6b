package repository

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNotPersisted    = errors.New("shipping address has no id")
)
