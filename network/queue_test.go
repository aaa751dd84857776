package network

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	resp *Response
	err  error
}

func testBeaconConfig() config.Beacon {
	return config.Beacon{
		TimeoutMs:              500,
		QueueSize:              10,
		Workers:                2,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeoutSeconds: 5,
	}
}

func startQueue(t *testing.T, client *http.Client, cfg config.Beacon) *RequestQueue {
	t.Helper()
	q := NewRequestQueue(client, cfg)
	q.Start()
	t.Cleanup(q.Stop)
	return q
}

func add(q *RequestQueue, req *Request) <-chan outcome {
	done := make(chan outcome, 1)
	q.Add(req, func(resp *Response, err error) {
		done <- outcome{resp: resp, err: err}
	})
	return done
}

func await(t *testing.T, done <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-done:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}
	return outcome{}
}

func TestQueueDeliversStatusCode(t *testing.T) {
	var cacheControl atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cacheControl.Store(r.Header.Get("Cache-Control"))
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	q := startQueue(t, server.Client(), testBeaconConfig())

	o := await(t, add(q, NewGetRequest(server.URL+"/imp")))
	require.NoError(t, o.err)
	assert.Equal(t, http.StatusNoContent, o.resp.StatusCode)
	assert.Equal(t, "no-cache", cacheControl.Load())
}

func TestQueueTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	q := startQueue(t, http.DefaultClient, testBeaconConfig())

	req := NewGetRequest(url)
	req.RetryPolicy.MaxRetries = 0
	o := await(t, add(q, req))
	assert.Nil(t, o.resp)
	assert.Error(t, o.err)
}

func TestQueueTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	q := startQueue(t, server.Client(), testBeaconConfig())

	req := NewGetRequest(server.URL)
	req.RetryPolicy = RetryPolicy{TimeoutMs: 50, MaxRetries: 0, BackoffMultiplier: DefaultBackoffMult}
	o := await(t, add(q, req))

	var timeout *errortypes.Timeout
	assert.ErrorAs(t, o.err, &timeout)
}

func TestQueueRetriesOnlyWhenAsked(t *testing.T) {
	testCases := []struct {
		description  string
		maxRetries   int
		expectedHits int32
	}{
		{
			description:  "zero retries",
			maxRetries:   0,
			expectedHits: 1,
		},
		{
			description:  "one retry",
			maxRetries:   1,
			expectedHits: 2,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			var hits int32
			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer server.Close()
			defer close(release)

			q := startQueue(t, server.Client(), testBeaconConfig())

			req := NewGetRequest(server.URL)
			req.RetryPolicy = RetryPolicy{TimeoutMs: 30, MaxRetries: test.maxRetries, BackoffMultiplier: 0}
			o := await(t, add(q, req))

			assert.Error(t, o.err)
			assert.Equal(t, test.expectedHits, atomic.LoadInt32(&hits))
		})
	}
}

func TestQueueFull(t *testing.T) {
	cfg := testBeaconConfig()
	cfg.QueueSize = 1

	// Not started, so nothing drains the queue.
	q := NewRequestQueue(http.DefaultClient, cfg)

	first := make(chan outcome, 1)
	q.Add(NewGetRequest("http://a.test"), func(resp *Response, err error) { first <- outcome{resp, err} })
	assert.Equal(t, 1, q.Pending())

	o := await(t, add(q, NewGetRequest("http://b.test")))
	var full *errortypes.QueueFull
	assert.ErrorAs(t, o.err, &full)
	assert.Contains(t, o.err.Error(), "http://b.test")
}

func TestQueueStopped(t *testing.T) {
	q := NewRequestQueue(http.DefaultClient, testBeaconConfig())
	q.Start()
	q.Stop()
	q.Stop()

	o := await(t, add(q, NewGetRequest("http://a.test")))
	assert.Equal(t, ErrQueueStopped, o.err)
}

func TestQueueRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	cfg := testBeaconConfig()
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1
	q := startQueue(t, server.Client(), cfg)
	require.NotNil(t, q.limiter)

	o := await(t, add(q, NewGetRequest(server.URL)))
	require.NoError(t, o.err)
	assert.Equal(t, http.StatusOK, o.resp.StatusCode)
}

func TestRetryPolicyTimeout(t *testing.T) {
	policy := RetryPolicy{TimeoutMs: 100, MaxRetries: 2, BackoffMultiplier: 1}
	assert.Equal(t, 100*time.Millisecond, policy.timeout(0))
	assert.Equal(t, 200*time.Millisecond, policy.timeout(1))
	assert.Equal(t, 400*time.Millisecond, policy.timeout(2))

	assert.Equal(t, time.Duration(DefaultTimeoutMs)*time.Millisecond, RetryPolicy{}.timeout(0))
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(testBeaconConfig(), nil)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 10, transport.MaxIdleConns)
	assert.Equal(t, 2, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 5*time.Second, transport.IdleConnTimeout)
	assert.Nil(t, transport.TLSClientConfig.RootCAs)
}
