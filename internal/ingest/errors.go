package ingest

import "errors"

var (
	// ErrUnsupportedType reports a filename or declared type outside the
	// allowed media set. User-correctable.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrRateLimited reports an exhausted ingestion budget. The triggering
	// upload's bytes are still recorded against the caller.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Response is the wire representation of a pipeline refusal.
type Response struct {
	Token      string
	HTTPStatus int
}

// ResponseFor maps a domain error to its wire token and status code. The
// second return value is false for infrastructure errors, which callers
// must not translate into a domain refusal.
func ResponseFor(err error) (Response, bool) {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return Response{Token: "no", HTTPStatus: 415}, true
	case errors.Is(err, ErrRateLimited):
		return Response{Token: "ratelimit", HTTPStatus: 420}, true
	default:
		return Response{}, false
	}
}
