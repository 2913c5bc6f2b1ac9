package ee

import "errors"

var (
	ErrUnreachable  = errors.New("compute service unreachable")
	ErrTimeout      = errors.New("compute service timeout")
	ErrCompute      = errors.New("compute service rejected request")
	ErrTaskNotFound = errors.New("task not found")
)
