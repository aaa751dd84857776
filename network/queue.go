package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/logger"
	"golang.org/x/net/context/ctxhttp"
	"golang.org/x/time/rate"
)

// ErrQueueStopped is delivered to callbacks for requests added after Stop.
var ErrQueueStopped = errors.New("request queue is stopped")

type job struct {
	req *Request
	cb  Callback
}

// RequestQueue runs requests on a fixed pool of workers. It is shared by every caller in
// the process; callers only ever append work to it.
type RequestQueue struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	jobs       chan job
	workers    int

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewHTTPClient builds the pooled client shared by all tracking requests. A nil certPool
// uses the system roots.
func NewHTTPClient(cfg config.Beacon, certPool *x509.CertPool) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{RootCAs: certPool},
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout(),
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout(),
		},
	}
}

// NewRequestQueue returns a queue that is not yet running. Call Start before adding work.
func NewRequestQueue(httpClient *http.Client, cfg config.Beacon) *RequestQueue {
	q := &RequestQueue{
		httpClient: httpClient,
		jobs:       make(chan job, cfg.QueueSize),
		workers:    cfg.Workers,
	}
	if cfg.RequestsPerSecond > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return q
}

// Start launches the workers.
func (q *RequestQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
}

// Stop refuses new work, lets the workers finish everything already queued and waits for them.
func (q *RequestQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

// Pending returns the number of requests waiting for a worker.
func (q *RequestQueue) Pending() int {
	return len(q.jobs)
}

// Add never blocks. A full or stopped queue fails the request through its callback.
func (q *RequestQueue) Add(req *Request, cb Callback) {
	req.submitted = time.Now()

	q.mu.RLock()
	if q.stopped {
		q.mu.RUnlock()
		go cb(nil, ErrQueueStopped)
		return
	}
	select {
	case q.jobs <- job{req: req, cb: cb}:
		q.mu.RUnlock()
	default:
		q.mu.RUnlock()
		go cb(nil, &errortypes.QueueFull{Message: fmt.Sprintf("request queue is full, dropping %s", req.URL)})
	}
}

func (q *RequestQueue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		resp, err := q.execute(j.req)
		j.cb(resp, err)
	}
}

func (q *RequestQueue) execute(req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= req.RetryPolicy.MaxRetries; attempt++ {
		resp, err := q.attempt(req, req.RetryPolicy.timeout(attempt))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < req.RetryPolicy.MaxRetries {
			logger.Debugf("Retrying %s after error: %v", req.URL, err)
		}
	}
	return nil, lastErr
}

func (q *RequestQueue) attempt(req *Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return nil, &errortypes.Timeout{Message: fmt.Sprintf("rate limit wait for %s: %v", req.URL, err)}
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequest(method, req.URL, nil)
	if err != nil {
		return nil, err
	}
	if !req.ShouldCache {
		httpReq.Header.Set("Cache-Control", "no-cache")
	}

	httpResp, err := ctxhttp.Do(ctx, q.httpClient, httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errortypes.Timeout{Message: fmt.Sprintf("request to %s timed out after %v", req.URL, timeout)}
		}
		return nil, err
	}
	defer httpResp.Body.Close()
	io.Copy(io.Discard, httpResp.Body)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
	}, nil
}
