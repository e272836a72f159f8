package report_test

import (
	"testing"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/report"
)

func reconstruct(t *testing.T, events []report.Event, prior *report.Event, w report.Window) []report.Interval {
	t.Helper()
	return report.Reconstruct(report.SelectRelevant(events, prior, w), w)
}

func TestReconstruct_BoundedPair(t *testing.T) {
	events := []report.Event{
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: at(10, 0, 0)},
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(10, 5, 0)},
	}

	got := reconstruct(t, events, nil, janWindow)
	if len(got) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(got))
	}
	iv := got[0]
	if !iv.Start.Equal(at(10, 0, 0)) || !iv.End.Equal(at(10, 5, 0)) {
		t.Errorf("interval = [%v, %v)", iv.Start, iv.End)
	}
	if iv.ImageID != "img-1" {
		t.Errorf("ImageID = %q, want img-1", iv.ImageID)
	}
	if iv.Seconds() != 18000 {
		t.Errorf("Seconds() = %v, want 18000", iv.Seconds())
	}
}

func TestReconstruct_TrailingOpenIntervalClosesAtWindowEnd(t *testing.T) {
	events := []report.Event{
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: at(31, 12, 0)},
	}

	got := reconstruct(t, events, nil, janWindow)
	if len(got) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(got))
	}
	if !got[0].End.Equal(windowEnd) {
		t.Errorf("End = %v, want window end %v", got[0].End, windowEnd)
	}
}

func TestReconstruct_CarriedOverSpansWholeWindow(t *testing.T) {
	prior := report.Event{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart.Add(-17 * 24 * time.Hour)}

	got := reconstruct(t, nil, &prior, janWindow)
	if len(got) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(got))
	}
	iv := got[0]
	if !iv.Start.Equal(windowStart) || !iv.End.Equal(windowEnd) {
		t.Errorf("interval = [%v, %v), want whole window", iv.Start, iv.End)
	}
	if want := float64(31 * 86400); iv.Seconds() != want {
		t.Errorf("Seconds() = %v, want %v", iv.Seconds(), want)
	}
}

func TestReconstruct_PreWindowPowerOnClipsToStart(t *testing.T) {
	prior := report.Event{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart.Add(-time.Hour)}
	events := []report.Event{
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(1, 2, 0)},
	}

	got := reconstruct(t, events, &prior, janWindow)
	if len(got) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(got))
	}
	if !got[0].Start.Equal(windowStart) {
		t.Errorf("Start = %v, want clipped to window start", got[0].Start)
	}
	if got[0].Seconds() != 7200 {
		t.Errorf("Seconds() = %v, want 7200", got[0].Seconds())
	}
}

func TestReconstruct_RedundantEventsAreIgnored(t *testing.T) {
	events := []report.Event{
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(2, 0, 0)}, // off while off
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: at(3, 0, 0)},
		{Type: report.PowerOn, ImageID: "img-2", OccurredAt: at(4, 0, 0)}, // on while on
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(5, 0, 0)},
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(6, 0, 0)}, // off while off
	}

	got := reconstruct(t, events, nil, janWindow)
	if len(got) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(got))
	}
	iv := got[0]
	if !iv.Start.Equal(at(3, 0, 0)) || !iv.End.Equal(at(5, 0, 0)) {
		t.Errorf("interval = [%v, %v), want [Jan 3, Jan 5)", iv.Start, iv.End)
	}
	if iv.ImageID != "img-1" {
		t.Errorf("ImageID = %q, want image active at span open", iv.ImageID)
	}
}

func TestReconstruct_MultipleIntervals(t *testing.T) {
	events := []report.Event{
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: at(3, 0, 0)},
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(3, 1, 0)},
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: at(9, 0, 0)},
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(9, 2, 0)},
	}

	got := reconstruct(t, events, nil, janWindow)
	if len(got) != 2 {
		t.Fatalf("len(intervals) = %d, want 2", len(got))
	}
	if got[0].Seconds() != 3600 || got[1].Seconds() != 7200 {
		t.Errorf("seconds = %v, %v; want 3600, 7200", got[0].Seconds(), got[1].Seconds())
	}
}

func TestReconstruct_ZeroLengthInterval(t *testing.T) {
	ts := at(15, 10, 0)
	events := []report.Event{
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: ts},
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: ts},
	}

	got := reconstruct(t, events, nil, janWindow)
	if len(got) != 1 {
		t.Fatalf("len(intervals) = %d, want 1", len(got))
	}
	if got[0].Seconds() != 0 {
		t.Errorf("Seconds() = %v, want 0", got[0].Seconds())
	}
}

func TestReconstruct_None(t *testing.T) {
	if got := reconstruct(t, nil, nil, janWindow); got != nil {
		t.Errorf("intervals = %v, want nil", got)
	}
}

// All reconstructed intervals must stay inside the window regardless of the
// event timestamps fed in.
func TestReconstruct_ClippingBounds(t *testing.T) {
	prior := report.Event{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart.Add(-100 * time.Hour)}
	events := []report.Event{
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(5, 0, 0)},
		{Type: report.PowerOn, ImageID: "img-2", OccurredAt: at(20, 0, 0)},
	}

	for _, iv := range reconstruct(t, events, &prior, janWindow) {
		if iv.Start.Before(windowStart) || iv.End.After(windowEnd) {
			t.Errorf("interval [%v, %v) escapes window [%v, %v)", iv.Start, iv.End, windowStart, windowEnd)
		}
		if iv.End.Before(iv.Start) {
			t.Errorf("interval [%v, %v) is inverted", iv.Start, iv.End)
		}
	}
}

// Window boundaries behave symmetrically: a power-on exactly at the window
// start and a power-on long before the window produce identical runtime when
// neither is followed by a power-off.
func TestReconstruct_BoundarySymmetry(t *testing.T) {
	atStart := []report.Event{
		{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart},
	}
	fromStart := reconstruct(t, atStart, nil, janWindow)

	prior := report.Event{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart.Add(-17 * 24 * time.Hour)}
	carried := reconstruct(t, nil, &prior, janWindow)

	total := func(ivs []report.Interval) float64 {
		var s float64
		for _, iv := range ivs {
			s += iv.Seconds()
		}
		return s
	}

	if total(fromStart) != total(carried) {
		t.Errorf("runtime at-start = %v, carried-over = %v; want equal", total(fromStart), total(carried))
	}
	if want := float64(31 * 86400); total(carried) != want {
		t.Errorf("runtime = %v, want %v", total(carried), want)
	}
}
