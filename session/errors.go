package session

import (
	"errors"
	"fmt"
)

var (
	ErrRecognizerUnavailable = errors.New("speech recognition is not available")
	ErrAlreadyRecording      = errors.New("recognition already started")
	ErrNotRecording          = errors.New("not recording")
	ErrClosed                = errors.New("session closed")
)

// EngineError is a failure of the recognition engine during Op ("start"
// or "stop").
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("recognition %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
