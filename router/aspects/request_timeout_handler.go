package aspects

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/logger"
)

// QueuedRequestTimeout answers 408 when an upstream proxy reports that a beacon request
// waited in its queue for at least the request's timeout. Requests without both headers
// pass through.
func QueuedRequestTimeout(f httprouter.Handle, headers config.RequestTimeoutHeaders) httprouter.Handle {
	if headers.RequestTimeInQueue == "" || headers.RequestTimeoutInQueue == "" {
		return f
	}

	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		inQueueRaw := r.Header.Get(headers.RequestTimeInQueue)
		timeoutRaw := r.Header.Get(headers.RequestTimeoutInQueue)
		if inQueueRaw == "" || timeoutRaw == "" {
			f(w, r, params)
			return
		}

		inQueue, err := parseSeconds(inQueueRaw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		timeout, err := parseSeconds(timeoutRaw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if inQueue >= timeout {
			logger.Debugf("Dropping %s %s after %v in the upstream queue", r.Method, r.URL.Path, inQueue)
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}

		f(w, r, params)
	}
}

// parseSeconds reads a header holding fractional seconds, as nginx reports $request_time.
func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
