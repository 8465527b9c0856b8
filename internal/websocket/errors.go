package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrReadOnly        = errors.New("this feed is read-only")
	ErrHubStopped      = errors.New("hub is stopped")
)
