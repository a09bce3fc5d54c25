// Package common defines shared constants and sentinel errors used across
// the cheat service layers. Callers should use errors.Is to match these values.
package common

import "errors"

// SessionCookieName is the cookie that carries the signed session token
// identifying the currently active game.
const SessionCookieName = "deltacheats_session"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Input errors: wrong file type, missing field, empty selection.
	ErrInputValidation = errors.New("invalid input")

	// Identity errors.
	ErrExtraction     = errors.New("could not identify game")
	ErrTruncatedInput = errors.New("rom header is too short")

	// Foreign store errors.
	ErrSchema       = errors.New("not a valid emulator store")
	ErrJoinMismatch = errors.New("store does not match the uploaded rom")
	ErrGameNotFound = errors.New("game not found in store")
	ErrNoStore      = errors.New("no store uploaded for this game")
	ErrNoActiveGame = errors.New("no game has been set, upload a rom first")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
