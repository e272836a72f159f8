// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/domain/report"
	"github.com/cloudmeter/cloudmeter/ports"
)

// ReportService computes usage reports by joining stored event history with
// the pure accounting engine in domain/report. It performs reads only and
// never retries a failed store call.
type ReportService struct {
	accounts  ports.AccountStore
	instances ports.InstanceStore
	events    ports.EventStore
	tags      []cloud.Tag
	metrics   ports.EngineMetrics
	logger    zerolog.Logger
}

// NewReportService creates a report service that attributes usage to the
// given recognized tags (defaults to rhel and openshift).
func NewReportService(
	accounts ports.AccountStore,
	instances ports.InstanceStore,
	events ports.EventStore,
	tags []cloud.Tag,
	logger zerolog.Logger,
) *ReportService {
	if len(tags) == 0 {
		tags = []cloud.Tag{cloud.TagRHEL, cloud.TagOpenShift}
	}
	return &ReportService{
		accounts:  accounts,
		instances: instances,
		events:    events,
		tags:      tags,
		logger:    logger.With().Str("service", "report").Logger(),
	}
}

// SetMetrics attaches engine work counters. Safe to leave unset.
func (s *ReportService) SetMetrics(m ports.EngineMetrics) {
	s.metrics = m
}

// Tags returns the recognized tag set, in configuration order.
func (s *ReportService) Tags() []cloud.Tag {
	return s.tags
}

// ReportOptions narrows which accounts a report covers.
type ReportOptions struct {
	// AccountID restricts the report to a single account.
	AccountID string
	// NamePattern filters accounts by name words (case-insensitive).
	NamePattern string
}

// DailyUsage computes per-day tag-attributed running seconds and
// distinct-instance counts across a user's instances for the window.
func (s *ReportService) DailyUsage(ctx context.Context, userID string, w report.Window, opts ReportOptions) (report.DailyUsageReport, error) {
	if err := w.Validate(); err != nil {
		return report.DailyUsageReport{}, err
	}

	accounts, err := s.accounts.ListByUser(ctx, userID, ports.AccountFilter{
		AccountID:   opts.AccountID,
		NamePattern: opts.NamePattern,
	})
	if err != nil {
		return report.DailyUsageReport{}, fmt.Errorf("list accounts: %w", err)
	}

	tagCache := make(map[string][]cloud.Tag)
	var activity []report.InstanceActivity

	for _, acct := range accounts {
		instances, err := s.instances.ListByAccount(ctx, acct.ID)
		if err != nil {
			return report.DailyUsageReport{}, fmt.Errorf("list instances for account %s: %w", acct.ID, err)
		}

		for _, inst := range instances {
			rel, err := s.selectRelevant(ctx, inst.ID, w)
			if err != nil {
				return report.DailyUsageReport{}, err
			}
			if !rel.Contributes() {
				continue
			}

			intervals := report.Reconstruct(rel, w)
			tagged := make([]report.TaggedInterval, 0, len(intervals))
			for _, iv := range intervals {
				tags, err := s.imageTags(ctx, tagCache, iv.ImageID)
				if err != nil {
					return report.DailyUsageReport{}, err
				}
				tagged = append(tagged, report.TaggedInterval{Interval: iv, Tags: tags})
			}
			activity = append(activity, report.InstanceActivity{
				InstanceID: inst.ID,
				Intervals:  tagged,
			})
		}
	}

	s.logger.Debug().
		Str("user_id", userID).
		Time("start", w.Start).
		Time("end", w.End).
		Int("active_instances", len(activity)).
		Msg("computed daily usage")

	return report.DailyUsage(w, s.tags, activity)
}

// AccountOverview computes the distinct-entity overview for one account.
func (s *ReportService) AccountOverview(ctx context.Context, acct cloud.Account, w report.Window) (report.AccountOverview, error) {
	if err := w.Validate(); err != nil {
		return report.AccountOverview{}, err
	}
	if acct.CreatedAt.IsZero() {
		return report.AccountOverview{}, report.ErrMissingAccountMetadata
	}

	// An account created at or after the window end cannot have meaningful
	// counts; skip the store reads entirely.
	if !acct.CreatedAt.Before(w.End) {
		s.logger.Info().
			Str("account_id", acct.ID).
			Time("created_at", acct.CreatedAt).
			Time("window_end", w.End).
			Msg("account created after window end, reporting unknown counts")
		return report.Overview(acct, w, s.tags, nil)
	}

	instances, err := s.instances.ListByAccount(ctx, acct.ID)
	if err != nil {
		return report.AccountOverview{}, fmt.Errorf("list instances for account %s: %w", acct.ID, err)
	}

	tagCache := make(map[string][]cloud.Tag)
	var relevances []report.InstanceRelevance

	for _, inst := range instances {
		rel, err := s.selectRelevant(ctx, inst.ID, w)
		if err != nil {
			return report.AccountOverview{}, err
		}
		if !rel.Contributes() {
			continue
		}

		imageTags := make(map[string][]cloud.Tag)
		for _, e := range rel.All() {
			if _, ok := imageTags[e.ImageID]; ok {
				continue
			}
			tags, err := s.imageTags(ctx, tagCache, e.ImageID)
			if err != nil {
				return report.AccountOverview{}, err
			}
			imageTags[e.ImageID] = tags
		}

		relevances = append(relevances, report.InstanceRelevance{
			InstanceID: inst.ID,
			Relevant:   rel,
			ImageTags:  imageTags,
		})
	}

	return report.Overview(acct, w, s.tags, relevances)
}

// AccountOverviews computes overviews for every matching account of a user.
func (s *ReportService) AccountOverviews(ctx context.Context, userID string, w report.Window, opts ReportOptions) ([]report.AccountOverview, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListByUser(ctx, userID, ports.AccountFilter{
		AccountID:   opts.AccountID,
		NamePattern: opts.NamePattern,
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	overviews := make([]report.AccountOverview, 0, len(accounts))
	for _, acct := range accounts {
		ov, err := s.AccountOverview(ctx, acct, w)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, ov)
	}
	return overviews, nil
}

// selectRelevant performs the two store lookups for one instance and feeds
// them to the pure selector. The latest-before lookup is a LIMIT 1 read, so
// it is done unconditionally to establish window-boundary state.
func (s *ReportService) selectRelevant(ctx context.Context, instanceID string, w report.Window) (report.RelevantEvents, error) {
	inWindow, err := s.events.EventsInRange(ctx, instanceID, w.Start, w.End)
	if err != nil {
		return report.RelevantEvents{}, fmt.Errorf("events in range for instance %s: %w", instanceID, err)
	}

	var prior *report.Event
	p, err := s.events.LatestEventBefore(ctx, instanceID, w.Start)
	switch {
	case err == nil:
		prior = &p
	case errors.Is(err, ports.ErrNotFound):
		// No history before the window: not running at the boundary.
	default:
		return report.RelevantEvents{}, fmt.Errorf("latest event before window for instance %s: %w", instanceID, err)
	}

	rel := report.SelectRelevant(inWindow, prior, w)
	if s.metrics != nil {
		s.metrics.AddInstancesExamined(1)
		s.metrics.AddEventsSelected(len(rel.All()))
	}
	return rel, nil
}

// imageTags resolves an image's tag set, memoizing per report computation.
func (s *ReportService) imageTags(ctx context.Context, cache map[string][]cloud.Tag, imageID string) ([]cloud.Tag, error) {
	if tags, ok := cache[imageID]; ok {
		return tags, nil
	}
	tags, err := s.events.TagsOf(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("tags of image %s: %w", imageID, err)
	}
	cache[imageID] = tags
	return tags, nil
}
