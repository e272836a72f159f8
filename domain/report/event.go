// Package report implements the usage accounting engine. It selects the
// power-state events relevant to a reporting window, reconstructs running
// intervals from incomplete event sequences, buckets running time into UTC
// calendar days, and aggregates tag-attributed statistics.
// All functions are pure - no side effects.
package report

import (
	"errors"
	"time"
)

// EventType is the kind of power-state transition an event records.
type EventType string

const (
	PowerOn  EventType = "power_on"
	PowerOff EventType = "power_off"
)

// Event is a single observed power-state transition (immutable value type).
// Events for one instance are ordered by OccurredAt.
type Event struct {
	ID         string
	InstanceID string
	ImageID    string
	Type       EventType
	OccurredAt time.Time
}

// Window is a half-open reporting interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// ErrInvalidWindow indicates a caller supplied a window whose start is not
// before its end.
var ErrInvalidWindow = errors.New("report: window start must be before end")

// ErrMissingAccountMetadata indicates an account whose creation timestamp is
// unknown, so the overview creation-date gate cannot be evaluated.
var ErrMissingAccountMetadata = errors.New("report: account creation time is unknown")

// Validate fails fast on a malformed window.
func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ValidEvent reports whether an event is usable as a window-boundary signal.
// A power-on is always informative. A power-off strictly before windowStart
// only establishes pre-window state and carries no information about
// activity inside the window, so it is discarded; pre-window "not running"
// is instead inferred from the absence of any usable prior event.
func ValidEvent(e Event, windowStart time.Time) bool {
	if e.OccurredAt.Before(windowStart) && e.Type == PowerOff {
		return false
	}
	return true
}

// RelevantKind discriminates the outcomes of relevant-event selection.
type RelevantKind int

const (
	// RelevantNone: the instance contributes nothing to the window.
	RelevantNone RelevantKind = iota
	// RelevantInWindow: events inside the window, possibly seeded with a
	// pre-window power-on establishing carried-over running state.
	RelevantInWindow
	// RelevantCarriedOver: no event inside the window, but the latest prior
	// event is a power-on, so the instance ran for the whole window.
	RelevantCarriedOver
)

// RelevantEvents is the result of relevant-event selection for a single
// instance. The three kinds are exhaustive; use Kind to branch.
type RelevantEvents struct {
	kind   RelevantKind
	events []Event
	carry  Event
}

// NoRelevantEvents returns the empty selection.
func NoRelevantEvents() RelevantEvents {
	return RelevantEvents{kind: RelevantNone}
}

// InWindowEvents wraps an ordered list of usable events.
func InWindowEvents(events []Event) RelevantEvents {
	if len(events) == 0 {
		return NoRelevantEvents()
	}
	return RelevantEvents{kind: RelevantInWindow, events: events}
}

// CarriedOverEvent wraps the single pre-window power-on that covers the
// whole window.
func CarriedOverEvent(e Event) RelevantEvents {
	return RelevantEvents{kind: RelevantCarriedOver, carry: e}
}

// Kind returns the selection outcome.
func (r RelevantEvents) Kind() RelevantKind { return r.kind }

// Contributes reports whether the instance has any usable history for the
// window.
func (r RelevantEvents) Contributes() bool { return r.kind != RelevantNone }

// CarryOver returns the carried-over power-on, if the selection is of kind
// RelevantCarriedOver.
func (r RelevantEvents) CarryOver() (Event, bool) {
	if r.kind != RelevantCarriedOver {
		return Event{}, false
	}
	return r.carry, true
}

// All returns every selected event in occurrence order, including a
// carried-over event. The slice must not be mutated.
func (r RelevantEvents) All() []Event {
	switch r.kind {
	case RelevantInWindow:
		return r.events
	case RelevantCarriedOver:
		return []Event{r.carry}
	}
	return nil
}

// SelectRelevant assembles the event list to consider for a window from the
// two store lookups: the events whose timestamps fall inside [w.Start,
// w.End) in ascending order, and the single latest event strictly before
// w.Start (nil when none exists). Only that single prior event is ever
// consulted; a pre-window power-off is discarded per ValidEvent, leaving the
// instance "not running" at the window boundary.
func SelectRelevant(inWindow []Event, prior *Event, w Window) RelevantEvents {
	valid := inWindow[:0:0]
	for _, e := range inWindow {
		if ValidEvent(e, w.Start) {
			valid = append(valid, e)
		}
	}

	carried := prior != nil && ValidEvent(*prior, w.Start)

	switch {
	case len(valid) == 0 && !carried:
		return NoRelevantEvents()
	case len(valid) == 0:
		return CarriedOverEvent(*prior)
	case carried:
		return InWindowEvents(append([]Event{*prior}, valid...))
	default:
		return InWindowEvents(valid)
	}
}
