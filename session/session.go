package session

import (
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/macros"
	"github.com/prebid/prebid-beacon/tracker"
	"github.com/prebid/prebid-beacon/vastxml"
)

// Tracker generations a session can be created with.
const (
	VersionOne = 1
	VersionTwo = 2
)

// ErrUnknownEvent is returned when an event is not present in the session's VAST document.
var ErrUnknownEvent = &errortypes.BadInput{Message: "event not found in VAST document"}

// Firer fires trackers. *beacon.Dispatcher implements it.
type Firer interface {
	FireVastTrackers(trackers []*tracker.VastTracker, opts macros.Options) error
	FireVastTrackersTwo(trackers []*tracker.VastTrackerTwo, opts macros.Options) error
}

// Session keeps the trackers of one VAST document alive between player events, so
// non-repeatable trackers fire at most once over the lifetime of the ad.
type Session struct {
	ID      string
	Version int
	Events  []string

	trackers    map[string][]*tracker.VastTracker
	trackersTwo map[string][]*tracker.VastTrackerTwo
}

// Fire fires every tracker registered for event.
func (s *Session) Fire(firer Firer, event string, opts macros.Options) error {
	if s.Version == VersionTwo {
		trackers, ok := s.trackersTwo[event]
		if !ok {
			return ErrUnknownEvent
		}
		return firer.FireVastTrackersTwo(trackers, opts)
	}
	trackers, ok := s.trackers[event]
	if !ok {
		return ErrUnknownEvent
	}
	return firer.FireVastTrackers(trackers, opts)
}

// Store holds sessions until they expire.
type Store struct {
	cache    *cache.Cache
	maxCount int
	mu       sync.Mutex
}

// NewStore builds a Store from the sessions configuration.
func NewStore(cfg config.Sessions) *Store {
	return &Store{
		cache:    cache.New(cfg.TTL(), cfg.CleanupInterval()),
		maxCount: cfg.MaxCount,
	}
}

// Create registers a new session for ad. version must be VersionOne or VersionTwo.
func (s *Store) Create(ad *vastxml.Ad, version int) (*Session, error) {
	if version != VersionOne && version != VersionTwo {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("unsupported tracker version %d", version)}
	}

	rawUUID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	session := &Session{
		ID:      rawUUID.String(),
		Version: version,
		Events:  ad.Events(),
	}
	if version == VersionTwo {
		session.trackersTwo = ad.VastTrackersTwo()
	} else {
		session.trackers = ad.VastTrackers()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxCount > 0 && s.cache.ItemCount() >= s.maxCount {
		s.cache.DeleteExpired()
		if s.cache.ItemCount() >= s.maxCount {
			return nil, &errortypes.QueueFull{Message: fmt.Sprintf("session limit of %d reached", s.maxCount)}
		}
	}
	s.cache.SetDefault(session.ID, session)
	return session, nil
}

// Get returns the live session with the given id.
func (s *Store) Get(id string) (*Session, bool) {
	value, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return value.(*Session), true
}

// Delete ends a session early.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of sessions held, including expired ones not yet cleaned up.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
