package chat

import "errors"

var (
	// ErrNoReply is returned when the endpoint answers without a usable reply
	ErrNoReply = errors.New("chat: no reply in response")
	// ErrBusy is returned while a previous request is still awaiting its reply
	ErrBusy = errors.New("chat: a request is already in flight")
	// ErrNoSelection is returned when a routine is requested with nothing selected
	ErrNoSelection = errors.New("chat: no products selected")
)

// ErrEmptyMessage is returned when sending a blank message
var ErrEmptyMessage = errors.New("chat: message is empty")
