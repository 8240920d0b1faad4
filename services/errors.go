package services

import "errors"

// Domain errors returned by the services layer. Controllers map them to HTTP
// status codes with errors.Is; messages are specific enough for a stale client
// to understand why its action was rejected.
var (
	ErrTableNotFound   = errors.New("table not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")

	ErrTableOccupied      = errors.New("table already has an active session")
	ErrTableNumberTaken   = errors.New("table number already exists")
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrSessionTerminal    = errors.New("session already ended")

	ErrPlayerAlreadyInSession = errors.New("player is already in this session")
	ErrPlayerInOtherSession   = errors.New("player is already in another active session")
	ErrPlayerNotInSession     = errors.New("player is not in this session")
)
