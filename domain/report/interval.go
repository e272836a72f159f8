package report

import "time"

// Interval is a maximal clipped span during which an instance was
// continuously running, bound to the image active when the span opened.
// Start and End always satisfy w.Start <= Start <= End <= w.End for the
// window the interval was reconstructed against.
type Interval struct {
	Start   time.Time
	End     time.Time
	ImageID string
}

// Seconds returns the interval duration in seconds.
func (iv Interval) Seconds() float64 {
	return iv.End.Sub(iv.Start).Seconds()
}

// walkState is the immutable fold state threaded through event
// reconstruction. It is returned, never mutated in place.
type walkState struct {
	on      bool
	imageID string
	openAt  time.Time
}

// apply advances the state by one event, emitting a closed interval when a
// power-off ends a running span. Redundant events (power-on while running,
// power-off while stopped) leave the state unchanged.
func (s walkState) apply(e Event, w Window) (walkState, *Interval) {
	switch {
	case e.Type == PowerOn && !s.on:
		openAt := e.OccurredAt
		if openAt.Before(w.Start) {
			openAt = w.Start
		}
		return walkState{on: true, imageID: e.ImageID, openAt: openAt}, nil

	case e.Type == PowerOff && s.on:
		end := e.OccurredAt
		if end.After(w.End) {
			end = w.End
		}
		iv := Interval{Start: s.openAt, End: end, ImageID: s.imageID}
		return walkState{}, &iv

	default:
		return s, nil
	}
}

// Reconstruct turns a relevant-event selection into the ordered running
// intervals clipped to [w.Start, w.End). A carried-over power-on yields a
// single interval spanning the whole window. Zero-length intervals are
// emitted but contribute no runtime.
func Reconstruct(rel RelevantEvents, w Window) []Interval {
	switch rel.Kind() {
	case RelevantNone:
		return nil
	case RelevantCarriedOver:
		e, _ := rel.CarryOver()
		return []Interval{{Start: w.Start, End: w.End, ImageID: e.ImageID}}
	}

	var (
		state     walkState
		intervals []Interval
	)
	for _, e := range rel.All() {
		next, closed := state.apply(e, w)
		if closed != nil {
			intervals = append(intervals, *closed)
		}
		state = next
	}

	// Still running at the end of the walk: close at the window edge.
	if state.on {
		intervals = append(intervals, Interval{
			Start:   state.openAt,
			End:     w.End,
			ImageID: state.imageID,
		})
	}

	return intervals
}
