package domain

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrQuestionBankExhausted signals a question cursor past the end of its set.
	ErrQuestionBankExhausted = errors.New("question bank exhausted")

	// ErrUnknownDomain is returned when a domain name is not in the catalog.
	ErrUnknownDomain = errors.New("unknown domain")
)
