package service

import "errors"

var (
	// ErrInvalidURL means the target is not a well-formed absolute
	// http(s) URL. Never retried.
	ErrInvalidURL = errors.New("invalid target url")
	// ErrAllocationExhausted means no free code was found within the
	// configured attempt bound; the code space is close to saturated.
	ErrAllocationExhausted = errors.New("code space exhausted")
)
