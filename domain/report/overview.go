package report

import (
	"time"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
)

// AccountOverview summarises one account's activity inside a window. The
// countable fields are pointers: nil means "unknown", reported when the
// account was created at or after the window end and so could not have had
// any activity strictly before the window closed.
type AccountOverview struct {
	AccountID      string
	CloudAccountID string
	CloudType      cloud.Provider
	UserID         string
	Name           string
	CreatedAt      time.Time
	Images         *int
	Instances      *int
	TagInstances   map[cloud.Tag]*int
}

// InstanceRelevance pairs an instance with its relevant-event selection and
// the tag sets of the images those events reference.
type InstanceRelevance struct {
	InstanceID string
	Relevant   RelevantEvents
	ImageTags  map[string][]cloud.Tag
}

// Overview computes per-account distinct-entity counts for a window. An
// instance contributes only when it has at least one relevant event or
// carried-over running state; instances with no history in or before the
// window are excluded from every count. For each tag the count is the
// number of distinct contributing instances whose most-recently-referenced
// image carries the tag, independent of running state.
func Overview(acct cloud.Account, w Window, tags []cloud.Tag, instances []InstanceRelevance) (AccountOverview, error) {
	if err := w.Validate(); err != nil {
		return AccountOverview{}, err
	}
	if acct.CreatedAt.IsZero() {
		return AccountOverview{}, ErrMissingAccountMetadata
	}

	ov := AccountOverview{
		AccountID:      acct.ID,
		CloudAccountID: acct.CloudAccountID(),
		CloudType:      acct.CloudType(),
		UserID:         acct.UserID,
		Name:           acct.Name,
		CreatedAt:      acct.CreatedAt,
		TagInstances:   make(map[cloud.Tag]*int, len(tags)),
	}
	for _, t := range tags {
		ov.TagInstances[t] = nil
	}

	// The account did not exist before the window closed: every countable
	// field stays unknown.
	if !acct.CreatedAt.Before(w.End) {
		return ov, nil
	}

	var (
		instanceCount int
		imagesSeen    = make(map[string]bool)
		tagged        = make(map[cloud.Tag]map[string]bool, len(tags))
	)
	for _, t := range tags {
		tagged[t] = make(map[string]bool)
	}

	for _, inst := range instances {
		events := inst.Relevant.All()
		if len(events) == 0 {
			continue
		}
		instanceCount++

		for _, e := range events {
			imagesSeen[e.ImageID] = true
		}

		latest := events[len(events)-1]
		for _, t := range inst.ImageTags[latest.ImageID] {
			if set, ok := tagged[t]; ok {
				set[inst.InstanceID] = true
			}
		}
	}

	imageCount := len(imagesSeen)
	ov.Images = &imageCount
	ov.Instances = &instanceCount
	for _, t := range tags {
		n := len(tagged[t])
		ov.TagInstances[t] = &n
	}
	return ov, nil
}
