package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	validator "github.com/asaskevich/govalidator"
	"github.com/buger/jsonparser"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-beacon/beacon"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/tracker"
)

const (
	urlsKey = "urls"
	// WaitParameter makes the handler wait for every beacon outcome before answering.
	WaitParameter = "wait"
)

// BatchFirer fires a batch of tracking URLs. *beacon.Dispatcher implements it.
type BatchFirer interface {
	FireAll(urls []string, listener beacon.Listener)
}

// BeaconResult is the outcome of one URL when the caller waits for the batch.
type BeaconResult struct {
	URL   string `json:"url"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BeaconsResponse is written by the /beacons endpoint.
type BeaconsResponse struct {
	Submitted int            `json:"submitted"`
	Skipped   int            `json:"skipped"`
	Results   []BeaconResult `json:"results,omitempty"`
}

type beaconsEndpoint struct {
	firer          BatchFirer
	maxRequestSize int64
}

// NewBeaconsEndpoint returns a handler which fires every URL of a {"urls": [...]} body.
func NewBeaconsEndpoint(firer BatchFirer, maxRequestSize int64) httprouter.Handle {
	e := &beaconsEndpoint{
		firer:          firer,
		maxRequestSize: maxRequestSize,
	}
	return e.Handle
}

func (e *beaconsEndpoint) Handle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, e.maxRequestSize))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		w.WriteHeader(status)
		w.Write([]byte(fmt.Sprintf("invalid request: %s\n", err.Error())))
		return
	}

	urls, err := parseBeaconURLs(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(fmt.Sprintf("invalid request: %s\n", err.Error())))
		return
	}

	response := BeaconsResponse{}
	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			response.Skipped++
		} else {
			response.Submitted++
		}
	}

	if r.URL.Query().Get(WaitParameter) == "true" {
		collector := newResultCollector(response.Submitted)
		e.firer.FireAll(urls, collector)
		response.Results = collector.wait(r.Context())
		writeJSON(w, http.StatusOK, response)
		return
	}

	e.firer.FireAll(urls, nil)
	writeJSON(w, http.StatusAccepted, response)
}

// parseBeaconURLs reads the "urls" array. Blank entries are kept so the dispatcher can skip
// them; anything else must be an absolute http(s) URL.
func parseBeaconURLs(body []byte) ([]string, error) {
	urls := make([]string, 0)
	var errs []string
	_, err := jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, offset int, _ error) {
		if dataType != jsonparser.String {
			errs = append(errs, fmt.Sprintf("urls entry at offset %d is not a string", offset))
			return
		}
		url, parseErr := jsonparser.ParseString(value)
		if parseErr != nil {
			errs = append(errs, parseErr.Error())
			return
		}
		if strings.TrimSpace(url) != "" && !isTrackingURL(url) {
			errs = append(errs, fmt.Sprintf("%q is not a valid tracking url", url))
			return
		}
		urls = append(urls, url)
	}, urlsKey)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("request body must contain a %q array: %v", urlsKey, err)}
	}
	if len(errs) > 0 {
		return nil, &errortypes.BadInput{Message: strings.Join(errs, "; ")}
	}
	return urls, nil
}

func isTrackingURL(url string) bool {
	return validator.IsRequestURL(url) && tracker.HasTrackingScheme(url)
}

// resultCollector is a beacon.Listener gathering the outcome of a known number of beacons.
type resultCollector struct {
	mu      sync.Mutex
	results []BeaconResult
	wg      sync.WaitGroup
}

func newResultCollector(expected int) *resultCollector {
	c := &resultCollector{results: make([]BeaconResult, 0, expected)}
	c.wg.Add(expected)
	return c
}

func (c *resultCollector) OnResponse(url string) {
	c.add(BeaconResult{URL: url, OK: true})
}

func (c *resultCollector) OnErrorResponse(err error) {
	result := BeaconResult{Error: err.Error()}
	var failure *errortypes.TrackingFailure
	if errors.As(err, &failure) {
		result.URL = failure.URL
	}
	c.add(result)
}

func (c *resultCollector) add(result BeaconResult) {
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
	c.wg.Done()
}

// wait returns the results gathered once every beacon completed or ctx is done.
func (c *resultCollector) wait(ctx context.Context) []BeaconResult {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]BeaconResult(nil), c.results...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("Internal Error: %s\n", err.Error())))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
