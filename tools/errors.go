package tools

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrFailedUnmarshalInput is returned by Call when the input does not
	// match the tool's schema.
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")

	// ErrAsyncNotSupported is returned by CallAsync on every tool.
	ErrAsyncNotSupported = errors.New("async invocation is not supported")

	// ErrUpstreamRequest marks a failure of the single outbound request a
	// tool makes: network error, unexpected status, malformed JSON, or a
	// missing field in the provider response.
	ErrUpstreamRequest = errors.New("upstream request failed")
)

// UpstreamError wraps a failure of a provider round trip so that callers can
// match it with errors.Is(err, ErrUpstreamRequest) while keeping the original
// cause in the message chain.
func UpstreamError(err error, format string, args ...any) error {
	return errors.Mark(errors.WithMessagef(err, format, args...), ErrUpstreamRequest)
}
