package beacon

import (
	"reflect"

	"github.com/prebid/prebid-beacon/logger"
)

// Listener receives the outcome of a single beacon. Exactly one of the two methods is
// called per submitted URL.
type Listener interface {
	// OnResponse is called with the original URL when the endpoint answered HTTP 200.
	OnResponse(url string)
	// OnErrorResponse is called with an *errortypes.TrackingFailure otherwise.
	OnErrorResponse(err error)
}

// ListenerFuncs adapts a pair of functions to the Listener interface. Nil functions are skipped.
type ListenerFuncs struct {
	Response      func(url string)
	ErrorResponse func(err error)
}

func (l ListenerFuncs) OnResponse(url string) {
	if l.Response != nil {
		l.Response(url)
	}
}

func (l ListenerFuncs) OnErrorResponse(err error) {
	if l.ErrorResponse != nil {
		l.ErrorResponse(err)
	}
}

// chain forwards each outcome to every non-nil listener in order.
type chain []Listener

// Chain composes listeners. Nil entries, including nil pointers held in the interface,
// are dropped so an absent caller listener is skipped without a check at every call site.
func Chain(listeners ...Listener) Listener {
	c := make(chain, 0, len(listeners))
	for _, l := range listeners {
		if !isNilListener(l) {
			c = append(c, l)
		}
	}
	return c
}

func isNilListener(l Listener) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (c chain) OnResponse(url string) {
	for _, l := range c {
		l.OnResponse(url)
	}
}

func (c chain) OnErrorResponse(err error) {
	for _, l := range c {
		l.OnErrorResponse(err)
	}
}

// loggingListener writes one line per outcome. The URL is bound at construction because
// the failure callback only carries the error.
type loggingListener struct {
	url string
	log logger.Logger
}

func newLoggingListener(url string, log logger.Logger) Listener {
	return &loggingListener{url: url, log: log}
}

func (l *loggingListener) OnResponse(url string) {
	l.log.Infof("Successfully hit tracking endpoint: %s", url)
}

func (l *loggingListener) OnErrorResponse(err error) {
	l.log.Warnf("Failed to hit tracking endpoint: %s: %v", l.url, err)
}
