package models

import "errors"

var (
	ErrParentExists       = errors.New("parent with this username or email already exists")
	ErrParentNotFound     = errors.New("parent not found")
	ErrGardenNotFound     = errors.New("garden not found")
	ErrChildNotFound      = errors.New("child not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrSessionNotFound    = errors.New("simulation session not found")
	ErrSessionNotActive   = errors.New("simulation session is not active")
	ErrUnknownScenario    = errors.New("unknown scenario")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)
