package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/logger"
	"github.com/prebid/prebid-beacon/session"
	"github.com/prebid/prebid-beacon/vastxml"
)

// SessionResponse is written when a VAST document is registered.
type SessionResponse struct {
	ID      string   `json:"id"`
	Version int      `json:"version"`
	Events  []string `json:"events"`
}

// VastEndpoint serves the VAST event routes.
type VastEndpoint struct {
	Firer          session.Firer
	Sessions       *session.Store
	MaxRequestSize int64
	TrackingPixel  *TrackingPixel
}

func NewVastEndpoint(firer session.Firer, sessions *session.Store, maxRequestSize int64) *VastEndpoint {
	return &VastEndpoint{
		Firer:          firer,
		Sessions:       sessions,
		MaxRequestSize: maxRequestSize,
		TrackingPixel:  trackingPixelPng,
	}
}

// CreateSession parses the VAST document in the body and keeps its trackers for later events.
func (e *VastEndpoint) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ad, ok := e.readVAST(w, r)
	if !ok {
		return
	}
	version, err := parseVersion(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s, err := e.Sessions.Create(ad, version)
	if err != nil {
		writeError(w, err)
		return
	}

	body, _ := json.Marshal(SessionResponse{ID: s.ID, Version: s.Version, Events: s.Events})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body)
}

// SessionEvent fires the trackers of a registered session for one event.
func (e *VastEndpoint) SessionEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, found := e.Sessions.Get(ps.ByName(SessionIDParam))
	if !found {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(fmt.Sprintf("session '%s' not found", ps.ByName(SessionIDParam))))
		return
	}

	er, err := ParseEventRequest(r, ps.ByName(EventParam))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.Fire(e.Firer, er.Event, er.Options); err != nil {
		writeError(w, err)
		return
	}
	writeEventResponse(w, er, e.TrackingPixel)
}

// DeleteSession ends a session before it expires.
func (e *VastEndpoint) DeleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e.Sessions.Delete(ps.ByName(SessionIDParam))
	w.WriteHeader(http.StatusNoContent)
}

// OneShotEvent fires the trackers of the VAST document in the body for one event. No
// state is kept, so every call fires every matching tracker once.
func (e *VastEndpoint) OneShotEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ad, ok := e.readVAST(w, r)
	if !ok {
		return
	}
	er, err := ParseEventRequest(r, ps.ByName(EventParam))
	if err != nil {
		writeError(w, err)
		return
	}
	version, err := parseVersion(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if version == session.VersionTwo {
		trackers, found := ad.VastTrackersTwo()[er.Event]
		if !found {
			writeError(w, session.ErrUnknownEvent)
			return
		}
		err = e.Firer.FireVastTrackersTwo(trackers, er.Options)
	} else {
		trackers, found := ad.VastTrackers()[er.Event]
		if !found {
			writeError(w, session.ErrUnknownEvent)
			return
		}
		err = e.Firer.FireVastTrackers(trackers, er.Options)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeEventResponse(w, er, e.TrackingPixel)
}

func (e *VastEndpoint) readVAST(w http.ResponseWriter, r *http.Request) (*vastxml.Ad, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, e.MaxRequestSize))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		w.WriteHeader(status)
		w.Write([]byte(fmt.Sprintf("invalid request: %s\n", err.Error())))
		return nil, false
	}

	ad, err := vastxml.Parse(body)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ad, true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case err == session.ErrUnknownEvent:
		status = http.StatusNotFound
	case errortypes.ReadCode(err) == errortypes.BadInputErrorCode:
		status = http.StatusBadRequest
	case errortypes.ReadCode(err) == errortypes.QueueFullErrorCode:
		status = http.StatusServiceUnavailable
	default:
		logger.Errorf("vast endpoint error: %v", err)
	}
	w.WriteHeader(status)
	w.Write([]byte(fmt.Sprintf("invalid request: %s\n", err.Error())))
}
