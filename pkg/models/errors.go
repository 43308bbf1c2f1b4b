package models

import "errors"

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDepthExceeded = errors.New("maximum hierarchy depth exceeded")
	ErrMoveIntoSelf  = errors.New("cannot move a node into its own subtree")
)
