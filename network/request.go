package network

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeoutMs is the per-attempt timeout used when a request does not set one.
	DefaultTimeoutMs = 2500
	// DefaultMaxRetries is the retry count of DefaultRetryPolicy.
	DefaultMaxRetries = 1
	// DefaultBackoffMult grows the timeout between attempts.
	DefaultBackoffMult = 1.0
)

// RetryPolicy controls how long each attempt may take and how many attempts are made.
// After a failed attempt the timeout grows by timeout*BackoffMultiplier.
type RetryPolicy struct {
	TimeoutMs         int
	MaxRetries        int
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns the engine defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		TimeoutMs:         DefaultTimeoutMs,
		MaxRetries:        DefaultMaxRetries,
		BackoffMultiplier: DefaultBackoffMult,
	}
}

func (p RetryPolicy) timeout(attempt int) time.Duration {
	timeoutMs := p.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultTimeoutMs
	}
	current := float64(timeoutMs)
	for i := 0; i < attempt; i++ {
		current += current * p.BackoffMultiplier
	}
	return time.Duration(current) * time.Millisecond
}

// Request is a single unit of work for the RequestQueue.
type Request struct {
	URL    string
	Method string
	// ShouldCache allows the response to be served from, and stored in, an HTTP cache.
	// When false the request asks every intermediary to revalidate.
	ShouldCache bool
	RetryPolicy RetryPolicy

	submitted time.Time
}

// NewGetRequest returns a GET for url with the default retry policy and caching disabled.
func NewGetRequest(url string) *Request {
	return &Request{
		URL:         url,
		Method:      http.MethodGet,
		RetryPolicy: DefaultRetryPolicy(),
	}
}

// Submitted returns the time the request entered the queue.
func (r *Request) Submitted() time.Time {
	return r.submitted
}

// Response carries the parts of an HTTP response consumers care about. The body is
// always drained and discarded.
type Response struct {
	StatusCode int
	Header     http.Header
}

// Callback receives the outcome of a request. Exactly one of resp and err is non-nil.
type Callback func(resp *Response, err error)

// Engine accepts requests for asynchronous execution.
type Engine interface {
	// Add queues the request and returns immediately. cb is invoked exactly once from
	// another goroutine.
	Add(req *Request, cb Callback)
}
