package kv

import "errors"

var (
	errEmptyUserID        = errors.New("kv: user id is empty")
	errUserIDTooLong      = errors.New("kv: user id exceeds 255 characters")
	errUserIDInvalidChars = errors.New("kv: user id contains characters outside [A-Za-z0-9_-]")
)
