package jwkset

import "context"

// JWKSetSource is the contract every decorator in the stack implements: it
// returns a JWKSet given a RefreshEvaluator, the caller's millisecond clock,
// and an opaque context. The core reads no clock of its own; the now
// parameter is what makes the cache testable without sleeping.
type JWKSetSource interface {
	Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error)
	// Close releases resources owned by this source, including any it owns
	// directly in the chain below it. Calls made after Close are undefined.
	Close() error
}

// ResourceRetriever is the external collaborator responsible for fetching
// raw bytes from a URL or file. It is intentionally minimal: headers,
// timeouts, and size limits are the retriever's concern, not this
// package's.
type ResourceRetriever interface {
	Retrieve(ctx context.Context, location string) ([]byte, error)
}

// JWKSetParser parses raw bytes into a JWKSet. External collaborator.
type JWKSetParser interface {
	Parse(data []byte) (*JWKSet, error)
}
