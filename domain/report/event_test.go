package report_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/report"
)

var (
	windowStart = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC)
	janWindow   = report.Window{Start: windowStart, End: windowEnd}
)

func at(day, hour, min int) time.Time {
	return time.Date(2018, 1, day, hour, min, 0, 0, time.UTC)
}

func TestWindowValidate(t *testing.T) {
	if err := janWindow.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	inverted := report.Window{Start: windowEnd, End: windowStart}
	if err := inverted.Validate(); !errors.Is(err, report.ErrInvalidWindow) {
		t.Errorf("Validate() = %v, want ErrInvalidWindow", err)
	}

	empty := report.Window{Start: windowStart, End: windowStart}
	if err := empty.Validate(); !errors.Is(err, report.ErrInvalidWindow) {
		t.Errorf("Validate() on empty window = %v, want ErrInvalidWindow", err)
	}
}

func TestWindowContains(t *testing.T) {
	if !janWindow.Contains(windowStart) {
		t.Error("window should contain its start")
	}
	if janWindow.Contains(windowEnd) {
		t.Error("window should not contain its end (half-open)")
	}
	if janWindow.Contains(windowStart.Add(-time.Second)) {
		t.Error("window should not contain times before start")
	}
}

func TestValidEvent(t *testing.T) {
	tests := []struct {
		name  string
		event report.Event
		want  bool
	}{
		{
			name:  "power-on before window is valid",
			event: report.Event{Type: report.PowerOn, OccurredAt: windowStart.Add(-time.Hour)},
			want:  true,
		},
		{
			name:  "power-on inside window is valid",
			event: report.Event{Type: report.PowerOn, OccurredAt: at(10, 0, 0)},
			want:  true,
		},
		{
			name:  "power-off before window is invalid",
			event: report.Event{Type: report.PowerOff, OccurredAt: windowStart.Add(-time.Hour)},
			want:  false,
		},
		{
			name:  "power-off exactly at window start is valid",
			event: report.Event{Type: report.PowerOff, OccurredAt: windowStart},
			want:  true,
		},
		{
			name:  "power-off inside window is valid",
			event: report.Event{Type: report.PowerOff, OccurredAt: at(10, 5, 0)},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := report.ValidEvent(tt.event, windowStart); got != tt.want {
				t.Errorf("ValidEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectRelevant_None(t *testing.T) {
	rel := report.SelectRelevant(nil, nil, janWindow)
	if rel.Kind() != report.RelevantNone {
		t.Errorf("Kind() = %v, want RelevantNone", rel.Kind())
	}
	if rel.Contributes() {
		t.Error("empty selection should not contribute")
	}
}

func TestSelectRelevant_OnlyPriorPowerOffIsInert(t *testing.T) {
	prior := report.Event{Type: report.PowerOff, OccurredAt: windowStart.Add(-48 * time.Hour)}
	rel := report.SelectRelevant(nil, &prior, janWindow)
	if rel.Kind() != report.RelevantNone {
		t.Errorf("Kind() = %v, want RelevantNone for a lone pre-window power-off", rel.Kind())
	}
}

func TestSelectRelevant_CarriedOver(t *testing.T) {
	prior := report.Event{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart.Add(-30 * 24 * time.Hour)}
	rel := report.SelectRelevant(nil, &prior, janWindow)
	if rel.Kind() != report.RelevantCarriedOver {
		t.Fatalf("Kind() = %v, want RelevantCarriedOver", rel.Kind())
	}
	carry, ok := rel.CarryOver()
	if !ok || carry.ImageID != "img-1" {
		t.Errorf("CarryOver() = %v, %v; want img-1, true", carry, ok)
	}
}

func TestSelectRelevant_InWindow(t *testing.T) {
	events := []report.Event{
		{Type: report.PowerOn, OccurredAt: at(10, 0, 0)},
		{Type: report.PowerOff, OccurredAt: at(10, 5, 0)},
	}
	rel := report.SelectRelevant(events, nil, janWindow)
	if rel.Kind() != report.RelevantInWindow {
		t.Fatalf("Kind() = %v, want RelevantInWindow", rel.Kind())
	}
	if got := len(rel.All()); got != 2 {
		t.Errorf("len(All()) = %d, want 2", got)
	}
}

func TestSelectRelevant_PriorPowerOnSeedsInWindowList(t *testing.T) {
	prior := report.Event{Type: report.PowerOn, ImageID: "img-1", OccurredAt: windowStart.Add(-time.Hour)}
	events := []report.Event{
		{Type: report.PowerOff, ImageID: "img-1", OccurredAt: at(10, 0, 0)},
	}

	rel := report.SelectRelevant(events, &prior, janWindow)
	if rel.Kind() != report.RelevantInWindow {
		t.Fatalf("Kind() = %v, want RelevantInWindow", rel.Kind())
	}
	all := rel.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if all[0].Type != report.PowerOn || !all[0].OccurredAt.Before(windowStart) {
		t.Errorf("first event should be the pre-window power-on, got %+v", all[0])
	}
}

func TestSelectRelevant_PriorPowerOffIsDropped(t *testing.T) {
	prior := report.Event{Type: report.PowerOff, OccurredAt: windowStart.Add(-time.Hour)}
	events := []report.Event{
		{Type: report.PowerOn, OccurredAt: at(10, 0, 0)},
	}

	rel := report.SelectRelevant(events, &prior, janWindow)
	if rel.Kind() != report.RelevantInWindow {
		t.Fatalf("Kind() = %v, want RelevantInWindow", rel.Kind())
	}
	if got := len(rel.All()); got != 1 {
		t.Errorf("len(All()) = %d, want 1 (prior power-off dropped)", got)
	}
}
