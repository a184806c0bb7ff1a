package convo

import "errors"

var (
	ErrNotParticipant = errors.New("convo: caller is not a participant of this conversation")
	ErrNotAuthor      = errors.New("convo: only the message's author may perform this action")
	ErrNotFound       = errors.New("convo: not found")
	ErrValidation     = errors.New("convo: validation failed")
	ErrRateLimited    = errors.New("convo: rate limited")
)
