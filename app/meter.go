package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudmeter/cloudmeter/domain/report"
	"github.com/cloudmeter/cloudmeter/ports"
)

// ErrUnknownEventType indicates a metered event with a type other than
// power_on or power_off.
var ErrUnknownEventType = errors.New("app: unknown event type")

// MeterService records observed power-state transitions. Events are
// append-only; nothing is ever mutated or deleted.
type MeterService struct {
	events ports.EventStore
	idgen  ports.IDGenerator
	clock  ports.Clock
	logger zerolog.Logger
}

// NewMeterService creates a meter service.
func NewMeterService(events ports.EventStore, idgen ports.IDGenerator, clock ports.Clock, logger zerolog.Logger) *MeterService {
	return &MeterService{
		events: events,
		idgen:  idgen,
		clock:  clock,
		logger: logger.With().Str("service", "meter").Logger(),
	}
}

// RecordEvent appends a power-state event. A zero occurredAt defaults to
// the current time; timestamps are normalized to UTC.
func (s *MeterService) RecordEvent(ctx context.Context, instanceID, imageID string, typ report.EventType, occurredAt time.Time) (report.Event, error) {
	if typ != report.PowerOn && typ != report.PowerOff {
		return report.Event{}, ErrUnknownEventType
	}
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	e := report.Event{
		ID:         s.idgen.New(),
		InstanceID: instanceID,
		ImageID:    imageID,
		Type:       typ,
		OccurredAt: occurredAt.UTC(),
	}
	if err := s.events.Record(ctx, e); err != nil {
		return report.Event{}, fmt.Errorf("record event: %w", err)
	}

	s.logger.Debug().
		Str("event_id", e.ID).
		Str("instance_id", instanceID).
		Str("type", string(typ)).
		Time("occurred_at", e.OccurredAt).
		Msg("recorded power-state event")

	return e, nil
}
