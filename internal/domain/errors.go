package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidDrink = errors.New("invalid drink")
)
