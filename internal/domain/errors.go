package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed query (empty text, non-positive top_k).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingUnavailable signals that the embedding provider is disabled,
	// failed to initialize, or failed to produce a vector.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrDimensionMismatch signals a vector whose length does not match the
	// index dimensionality. Config/programming fault; should never occur in a
	// correct deployment.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrBackendUnreachable signals a network failure reaching a backend.
	ErrBackendUnreachable = errors.New("backend unreachable")
	// ErrTimeout signals an exceeded deadline on a backend call.
	ErrTimeout = errors.New("backend timeout")
	// ErrAuthenticationFailed signals rejected backend credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrRateLimited signals a backend rate limit hit. Eligible for retry with
	// backoff at the caller's discretion; this service never retries.
	ErrRateLimited = errors.New("rate limited")
)
