package report

import (
	"time"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
)

// TaggedInterval is a running interval joined with the tag set of the image
// it ran from. An interval counts fully toward every tag it carries.
type TaggedInterval struct {
	Interval
	Tags []cloud.Tag
}

// InstanceActivity is one instance's reconstructed intervals for a window.
type InstanceActivity struct {
	InstanceID string
	Intervals  []TaggedInterval
}

// DayUsage is a UTC calendar-day bucket of tag-attributed usage. Date is
// midnight UTC of the day. RuntimeSeconds sums seconds across instances
// without deduplication; Instances counts distinct instances with strictly
// positive runtime for the tag that day.
type DayUsage struct {
	Date           time.Time
	RuntimeSeconds map[cloud.Tag]float64
	Instances      map[cloud.Tag]int
}

// DailyUsageReport is the per-day breakdown for a window plus window-level
// distinct-instance totals per tag.
type DailyUsageReport struct {
	Window        Window
	Days          []DayUsage
	InstancesSeen map[cloud.Tag]int
}

// Days returns midnight-UTC starts for every calendar day wholly or partly
// inside the window, in order.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.Start.UTC().Truncate(24 * time.Hour); d.Before(w.End); d = d.Add(24 * time.Hour) {
		days = append(days, d)
	}
	return days
}

// DailyUsage buckets instance activity into calendar days and tag-keyed
// running-second totals. Only the recognized tags are counted; intervals
// from untagged images contribute to no bucket. Aggregation is associative
// and commutative across instances, so callers may compute activity for
// independent instances in any order.
func DailyUsage(w Window, tags []cloud.Tag, activity []InstanceActivity) (DailyUsageReport, error) {
	if err := w.Validate(); err != nil {
		return DailyUsageReport{}, err
	}

	recognized := make(map[cloud.Tag]bool, len(tags))
	for _, t := range tags {
		recognized[t] = true
	}

	dayStarts := w.Days()
	days := make([]DayUsage, len(dayStarts))
	dayIndex := make(map[int64]int, len(dayStarts))
	present := make([]map[cloud.Tag]map[string]bool, len(dayStarts))
	for i, d := range dayStarts {
		days[i] = DayUsage{
			Date:           d,
			RuntimeSeconds: make(map[cloud.Tag]float64, len(tags)),
			Instances:      make(map[cloud.Tag]int, len(tags)),
		}
		for _, t := range tags {
			days[i].RuntimeSeconds[t] = 0
			days[i].Instances[t] = 0
		}
		dayIndex[d.Unix()] = i
		present[i] = make(map[cloud.Tag]map[string]bool)
	}

	seen := make(map[cloud.Tag]map[string]bool, len(tags))
	for _, t := range tags {
		seen[t] = make(map[string]bool)
	}

	for _, inst := range activity {
		for _, iv := range inst.Intervals {
			if !iv.End.After(iv.Start) {
				continue // zero-length intervals are inert
			}
			for _, t := range iv.Tags {
				if !recognized[t] {
					continue
				}
				addIntervalToDays(iv.Interval, t, inst.InstanceID, dayIndex, days, present)
				seen[t][inst.InstanceID] = true
			}
		}
	}

	report := DailyUsageReport{
		Window:        w,
		Days:          days,
		InstancesSeen: make(map[cloud.Tag]int, len(tags)),
	}
	for _, t := range tags {
		report.InstancesSeen[t] = len(seen[t])
	}
	return report, nil
}

// addIntervalToDays clips an interval to each calendar day it overlaps and
// accumulates seconds and day-presence. Presence is recorded once per
// (instance, day, tag) so multiple intervals on the same day do not double
// count an instance.
func addIntervalToDays(iv Interval, tag cloud.Tag, instanceID string, dayIndex map[int64]int, days []DayUsage, present []map[cloud.Tag]map[string]bool) {
	for d := iv.Start.UTC().Truncate(24 * time.Hour); d.Before(iv.End); d = d.Add(24 * time.Hour) {
		i, ok := dayIndex[d.Unix()]
		if !ok {
			continue
		}

		clipStart := iv.Start
		if clipStart.Before(d) {
			clipStart = d
		}
		clipEnd := iv.End
		if next := d.Add(24 * time.Hour); clipEnd.After(next) {
			clipEnd = next
		}

		seconds := clipEnd.Sub(clipStart).Seconds()
		if seconds <= 0 {
			continue
		}

		days[i].RuntimeSeconds[tag] += seconds
		if present[i][tag] == nil {
			present[i][tag] = make(map[string]bool)
		}
		if !present[i][tag][instanceID] {
			present[i][tag][instanceID] = true
			days[i].Instances[tag]++
		}
	}
}
