package aspects

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-beacon/config"
	"github.com/stretchr/testify/assert"
)

const (
	reqTimeInQueueHeaderName = "X-Ngx-Request-Time"
	reqTimeoutHeaderName     = "X-Request-Timeout"
)

var testHeaders = config.RequestTimeoutHeaders{
	RequestTimeInQueue:    reqTimeInQueueHeaderName,
	RequestTimeoutInQueue: reqTimeoutHeaderName,
}

func TestQueuedRequestTimeout(t *testing.T) {
	testCases := []struct {
		description    string
		headers        config.RequestTimeoutHeaders
		timeInQueue    string
		timeout        string
		expectedStatus int
		expectedCalls  int
	}{
		{
			description:    "no headers configured",
			headers:        config.RequestTimeoutHeaders{},
			timeInQueue:    "6",
			timeout:        "5",
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			description:    "headers missing from request",
			headers:        testHeaders,
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			description:    "queued less than timeout",
			headers:        testHeaders,
			timeInQueue:    "0.5",
			timeout:        "2",
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			description:    "queued past timeout",
			headers:        testHeaders,
			timeInQueue:    "6",
			timeout:        "5",
			expectedStatus: http.StatusRequestTimeout,
			expectedCalls:  0,
		},
		{
			description:    "malformed header",
			headers:        testHeaders,
			timeInQueue:    "test",
			timeout:        "5",
			expectedStatus: http.StatusBadRequest,
			expectedCalls:  0,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			calls := 0
			handler := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				calls++
				w.WriteHeader(http.StatusOK)
			}

			req := httptest.NewRequest(http.MethodPost, "/beacons", nil)
			if test.timeInQueue != "" {
				req.Header.Set(reqTimeInQueueHeaderName, test.timeInQueue)
				req.Header.Set(reqTimeoutHeaderName, test.timeout)
			}
			recorder := httptest.NewRecorder()

			QueuedRequestTimeout(handler, test.headers)(recorder, req, nil)

			assert.Equal(t, test.expectedStatus, recorder.Code)
			assert.Equal(t, test.expectedCalls, calls)
		})
	}
}
