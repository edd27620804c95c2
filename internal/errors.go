package internal

import "errors"

var (
	ErrInvalidIdentity   = errors.New("invalid identity")
	ErrBootstrap         = errors.New("bootstrap failure")
	ErrDecode            = errors.New("decode failure")
	ErrPublish           = errors.New("publish failure")
	ErrBrokerUnavailable = errors.New("broker unavailable")
)
