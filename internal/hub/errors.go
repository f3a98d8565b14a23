package hub

import "errors"

var (
	ErrHubAlreadyRunning    = errors.New("hub is already running")
	ErrHubNotRunning        = errors.New("hub is not running")
	ErrPublishChannelFull   = errors.New("publish channel is full")
	ErrSubscribeChannelFull = errors.New("subscribe channel is full")
	ErrNilClient            = errors.New("client cannot be nil")
)
