// Package memory provides in-memory store implementations for tests and
// zero-configuration development mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/domain/report"
	"github.com/cloudmeter/cloudmeter/ports"
)

// EventStore is an in-memory implementation of ports.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events map[string][]report.Event // by instance ID, kept sorted
	images map[string]cloud.Image    // by image ID
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make(map[string][]report.Event),
		images: make(map[string]cloud.Image),
	}
}

// Record appends a new event.
func (s *EventStore) Record(ctx context.Context, e report.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.events[e.InstanceID], e)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OccurredAt.Before(list[j].OccurredAt)
	})
	s.events[e.InstanceID] = list
	return nil
}

// PutImage registers an image and its tag set.
func (s *EventStore) PutImage(img cloud.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[img.ID] = img
}

// EventsInRange returns an instance's events in [start, end), ascending.
func (s *EventStore) EventsInRange(ctx context.Context, instanceID string, start, end time.Time) ([]report.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []report.Event
	for _, e := range s.events[instanceID] {
		if !e.OccurredAt.Before(start) && e.OccurredAt.Before(end) {
			matching = append(matching, e)
		}
	}
	return matching, nil
}

// LatestEventBefore returns the single latest event strictly before ts.
func (s *EventStore) LatestEventBefore(ctx context.Context, instanceID string, ts time.Time) (report.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.events[instanceID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].OccurredAt.Before(ts) {
			return list[i], nil
		}
	}
	return report.Event{}, ports.ErrNotFound
}

// TagsOf returns the tag set of an image. Unknown images have no tags.
func (s *EventStore) TagsOf(ctx context.Context, imageID string) ([]cloud.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[imageID]
	if !ok {
		return nil, nil
	}
	tags := make([]cloud.Tag, len(img.Tags))
	copy(tags, img.Tags)
	return tags, nil
}

// Ensure interface compliance.
var _ ports.EventStore = (*EventStore)(nil)
