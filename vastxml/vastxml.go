package vastxml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/logger"
	"github.com/prebid/prebid-beacon/tracker"
)

// Pseudo events for trackers that are not listed under TrackingEvents.
const (
	EventImpression = "impression"
	EventError      = "error"
	EventClick      = "click"
)

// repeatableEvents may fire every time the player reports them.
var repeatableEvents = map[string]bool{
	"pause":          true,
	"resume":         true,
	"mute":           true,
	"unmute":         true,
	"rewind":         true,
	"fullscreen":     true,
	"exitFullscreen": true,
	"expand":         true,
	"collapse":       true,
	EventClick:       true,
}

// quartileEvents are reported as MessageTypeQuartileEvent on the newer tracker type.
var quartileEvents = map[string]bool{
	"start":         true,
	"firstQuartile": true,
	"midpoint":      true,
	"thirdQuartile": true,
	"complete":      true,
}

// Entry is one tracking URL found in a VAST document.
type Entry struct {
	Event string
	URL   string
}

// Repeatable tells whether the entry's event may fire more than once.
func (e Entry) Repeatable() bool {
	return repeatableEvents[e.Event]
}

// Ad holds every tracking URL of a VAST document, in document order.
type Ad struct {
	Entries []Entry
}

// Parse reads the tracking URLs of an InLine or Wrapper VAST document. Blank URLs and URLs
// without an http(s) scheme are dropped.
func Parse(vastXML []byte) (*Ad, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(vastXML); err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("Error parsing VAST XML. '%v'", err)}
	}
	if doc.SelectElement("VAST") == nil {
		return nil, &errortypes.BadInput{Message: "VAST root element is missing"}
	}

	ad := &Ad{}
	for _, adType := range []string{"InLine", "Wrapper"} {
		base := "VAST/Ad/" + adType
		ad.collect(EventImpression, doc.FindElements(base+"/Impression"))
		ad.collect(EventError, doc.FindElements(base+"/Error"))
		for _, creative := range findCreatives(doc, base) {
			for _, tracking := range creative.FindElements("TrackingEvents/Tracking") {
				event := tracking.SelectAttrValue("event", "")
				if event == "" {
					continue
				}
				ad.collect(event, []*etree.Element{tracking})
			}
			ad.collect(EventClick, creative.FindElements("VideoClicks/ClickTracking"))
			ad.collect(EventClick, creative.FindElements("NonLinear/NonLinearClickTracking"))
		}
	}
	return ad, nil
}

// findCreatives returns the Linear and NonLinearAds creatives under base.
func findCreatives(doc *etree.Document, base string) []*etree.Element {
	creatives := doc.FindElements(base + "/Creatives/Creative/Linear")
	return append(creatives, doc.FindElements(base+"/Creatives/Creative/NonLinearAds")...)
}

func (a *Ad) collect(event string, elements []*etree.Element) {
	for _, element := range elements {
		url := strings.TrimSpace(element.Text())
		if url == "" {
			continue
		}
		if !tracker.HasTrackingScheme(url) {
			logger.Warnf("Dropping %s tracker without an http(s) scheme: %s", event, url)
			continue
		}
		a.Entries = append(a.Entries, Entry{Event: event, URL: url})
	}
}

// Events returns the distinct event names found in the document, sorted.
func (a *Ad) Events() []string {
	seen := make(map[string]struct{})
	events := make([]string, 0)
	for _, entry := range a.Entries {
		if _, ok := seen[entry.Event]; ok {
			continue
		}
		seen[entry.Event] = struct{}{}
		events = append(events, entry.Event)
	}
	sort.Strings(events)
	return events
}

// VastTrackers groups fresh trackers by event.
func (a *Ad) VastTrackers() map[string][]*tracker.VastTracker {
	trackers := make(map[string][]*tracker.VastTracker)
	for _, entry := range a.Entries {
		trackers[entry.Event] = append(trackers[entry.Event], tracker.NewVastTracker(entry.URL, entry.Repeatable()))
	}
	return trackers
}

// VastTrackersTwo groups fresh trackers of the newer type by event.
func (a *Ad) VastTrackersTwo() map[string][]*tracker.VastTrackerTwo {
	trackers := make(map[string][]*tracker.VastTrackerTwo)
	for _, entry := range a.Entries {
		messageType := tracker.MessageTypeTrackingURL
		if quartileEvents[entry.Event] {
			messageType = tracker.MessageTypeQuartileEvent
		}
		t := tracker.NewVastTrackerTwo(entry.URL, messageType, entry.Repeatable()).WithEvent(entry.Event)
		trackers[entry.Event] = append(trackers[entry.Event], t)
	}
	return trackers
}
