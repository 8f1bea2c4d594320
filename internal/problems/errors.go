package problems

import "errors"

var (
	ErrUnknownProblem = errors.New("problems: unknown problem")
	ErrUnknownParam   = errors.New("problems: unknown parameter")
)
