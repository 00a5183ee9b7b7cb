package errors

import "errors"

var (
	ErrClientNotFound   = errors.New("client was not found")
	ErrBadClientUUID    = errors.New("client uuid is malformed")
	ErrGameNotFound     = errors.New("game not found")
	ErrBadConfiguration = errors.New("game configuration is invalid")
	ErrNotPlayer        = errors.New("client does not control this color")
	ErrEmptyIdentity    = errors.New("empty client identity")
	ErrUnknownRequest   = errors.New("unknown request")
)
