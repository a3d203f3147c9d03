package event

import "errors"

var (
	ErrDispatcherClosed = errors.New("event: dispatcher closed")
	ErrFdRegistered     = errors.New("event: fd already has a file event")
	ErrAlreadyRunning   = errors.New("event: dispatcher already running")
)
