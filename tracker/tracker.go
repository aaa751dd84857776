package tracker

import (
	"sync/atomic"
)

// Tracker is the capability the state gate needs from a VAST tracker. Both tracker
// variants implement it.
type Tracker interface {
	// Content returns the URL template to hit when the tracker fires.
	Content() string
	// IsTracked returns true once the tracker has been selected for dispatch.
	IsTracked() bool
	// IsRepeatable returns true if the tracker may fire more than once.
	IsRepeatable() bool
	// MarkTracked records that the tracker has been selected. It returns true if the
	// tracker may fire now: always for repeatable trackers, and only for the first
	// caller on a non-repeatable tracker.
	MarkTracked() bool
}

// state holds the fields shared by both tracker variants.
type state struct {
	content    string
	repeatable bool
	tracked    atomic.Bool
}

func (s *state) Content() string {
	return s.content
}

func (s *state) IsTracked() bool {
	return s.tracked.Load()
}

func (s *state) IsRepeatable() bool {
	return s.repeatable
}

func (s *state) MarkTracked() bool {
	if s.repeatable {
		s.tracked.Store(true)
		return true
	}
	return s.tracked.CompareAndSwap(false, true)
}

// VastTracker is a tracking URL collected from a VAST document.
type VastTracker struct {
	state
}

// NewVastTracker returns an untracked tracker for the given URL template.
func NewVastTracker(content string, repeatable bool) *VastTracker {
	return &VastTracker{state: state{content: content, repeatable: repeatable}}
}

// MessageType tells how a VastTrackerTwo should be delivered.
type MessageType string

const (
	// MessageTypeTrackingURL trackers are hit with an HTTP GET.
	MessageTypeTrackingURL MessageType = "tracking_url"
	// MessageTypeQuartileEvent trackers describe playback progress events.
	MessageTypeQuartileEvent MessageType = "quartile_event"
)

// VastTrackerTwo is the newer tracker representation. It carries the same firing policy as
// VastTracker plus the message type and the VAST event it was collected for.
type VastTrackerTwo struct {
	state
	messageType MessageType
	event       string
}

// NewVastTrackerTwo returns an untracked tracker. An empty messageType defaults to
// MessageTypeTrackingURL.
func NewVastTrackerTwo(content string, messageType MessageType, repeatable bool) *VastTrackerTwo {
	if messageType == "" {
		messageType = MessageTypeTrackingURL
	}
	return &VastTrackerTwo{
		state:       state{content: content, repeatable: repeatable},
		messageType: messageType,
	}
}

// WithEvent sets the VAST event name the tracker was collected for.
func (t *VastTrackerTwo) WithEvent(event string) *VastTrackerTwo {
	t.event = event
	return t
}

func (t *VastTrackerTwo) MessageType() MessageType {
	return t.messageType
}

func (t *VastTrackerTwo) Event() string {
	return t.event
}
