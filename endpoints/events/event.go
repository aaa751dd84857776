package events

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	validator "github.com/asaskevich/govalidator"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/macros"
	"github.com/prebid/prebid-beacon/session"
	"github.com/xorcare/pointer"
)

const (
	// Optional
	ErrorCodeParameter = "errorcode"
	PlayHeadParameter  = "playhead"
	AssetURIParameter  = "asseturi"
	FormatParameter    = "f"
	VersionParameter   = "version"

	// Path
	SessionIDParam = "id"
	EventParam     = "event"
)

// Format tells how an event endpoint answers.
type Format string

const (
	// Blank answers 202 with no body.
	Blank Format = "b"
	// Image answers 200 with a 1x1 PNG, for players which request trackers as pixels.
	Image Format = "i"
)

var trackingPixelPng = &TrackingPixel{
	Content: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44,
		0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x04, 0x73, 0x42, 0x49, 0x54, 0x08, 0x08, 0x08, 0x08, 0x7C, 0x08, 0x64, 0x88,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x44, 0x41, 0x54, 0x08, 0x99, 0x63, 0x60, 0x60, 0x60, 0x60, 0x00, 0x00,
		0x00, 0x05, 0x00, 0x01, 0x87, 0xA1, 0x4E, 0xD4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82},
	ContentType: "image/png",
}

type TrackingPixel struct {
	Content     []byte `json:"content,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// EventRequest is a player event reported against a VAST document.
type EventRequest struct {
	Event   string
	Format  Format
	Options macros.Options
}

/**
 * Parses an EventRequest from an Http request
 */
func ParseEventRequest(r *http.Request, event string) (*EventRequest, error) {
	er := &EventRequest{Event: strings.TrimSpace(event), Format: Blank}
	if er.Event == "" {
		return er, &errortypes.BadInput{Message: "event is required"}
	}

	if err := validateErrorCode(er, r); err != nil {
		return er, err
	}

	if err := validatePlayHead(er, r); err != nil {
		return er, err
	}

	if err := validateAssetURI(er, r); err != nil {
		return er, err
	}

	if err := validateFormat(er, r); err != nil {
		return er, err
	}

	return er, nil
}

/**
 * validate error code (optional)
 */
func validateErrorCode(er *EventRequest, httpRequest *http.Request) error {
	c := httpRequest.FormValue(ErrorCodeParameter)

	if c != "" {
		code := macros.VastErrorCode(c)
		if !code.IsValid() {
			return &errortypes.BadInput{Message: fmt.Sprintf("unknown error code: '%s'", c)}
		}
		er.Options.ErrorCode = &code
	}

	return nil
}

/**
 * validate content play head in milliseconds (optional)
 */
func validatePlayHead(er *EventRequest, httpRequest *http.Request) error {
	p := httpRequest.FormValue(PlayHeadParameter)

	if p != "" {
		ms, err := strconv.Atoi(p)
		if err != nil || ms < 0 {
			return &errortypes.BadInput{Message: fmt.Sprintf("invalid request: error parsing playhead '%s'", p)}
		}
		er.Options.ContentPlayHead = pointer.Int(ms)
	}

	return nil
}

/**
 * validate asset uri (optional)
 */
func validateAssetURI(er *EventRequest, httpRequest *http.Request) error {
	a := httpRequest.FormValue(AssetURIParameter)

	if a != "" {
		if !validator.IsURL(a) {
			return &errortypes.BadInput{Message: fmt.Sprintf("invalid asset uri: '%s'", a)}
		}
		er.Options.AssetURI = pointer.String(a)
	}

	return nil
}

/**
 * validate format (optional)
 */
func validateFormat(er *EventRequest, httpRequest *http.Request) error {
	f := httpRequest.FormValue(FormatParameter)

	if f != "" {
		switch f {
		case string(Blank):
			er.Format = Blank
			return nil
		case string(Image):
			er.Format = Image
			return nil
		default:
			return &errortypes.BadInput{Message: fmt.Sprintf("unknown format: '%s'", f)}
		}
	}

	return nil
}

/**
 * parse the tracker version (optional, defaults to 1)
 */
func parseVersion(httpRequest *http.Request) (int, error) {
	v := httpRequest.FormValue(VersionParameter)

	switch v {
	case "", "1":
		return session.VersionOne, nil
	case "2":
		return session.VersionTwo, nil
	default:
		return 0, &errortypes.BadInput{Message: fmt.Sprintf("unknown version: '%s'", v)}
	}
}

// writeEventResponse answers an accepted event in the requested format.
func writeEventResponse(w http.ResponseWriter, er *EventRequest, pixel *TrackingPixel) {
	if er.Format == Image {
		w.Header().Add("Content-Type", pixel.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(pixel.Content)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
