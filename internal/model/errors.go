package model

import "errors"

// Domain validation errors.
var (
	ErrEmptyTitle = errors.New("task title must not be empty")
	ErrEmptyName  = errors.New("project name must not be empty")
)
