// Package http provides the HTTP API for cloudmeter: usage reports, event
// ingestion, health, and metrics.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cloudmeter/cloudmeter/adapters/metrics"
	"github.com/cloudmeter/cloudmeter/app"
	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/domain/report"
	"github.com/cloudmeter/cloudmeter/ports"
)

// Handler serves the report API.
type Handler struct {
	reports *app.ReportService
	meter   *app.MeterService
	tokens  *app.TokenService
	clock   ports.Clock
	metrics *metrics.Collector
	logger  zerolog.Logger

	authEnabled       bool
	metricsPath       string
	defaultWindowDays int
}

// Config contains handler configuration.
type Config struct {
	AuthEnabled       bool
	MetricsPath       string // empty disables the metrics endpoint
	DefaultWindowDays int
}

// NewHandler creates a new API handler. The metrics collector may be nil.
func NewHandler(
	reports *app.ReportService,
	meter *app.MeterService,
	tokens *app.TokenService,
	clock ports.Clock,
	m *metrics.Collector,
	logger zerolog.Logger,
	cfg Config,
) *Handler {
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = 30
	}
	return &Handler{
		reports:           reports,
		meter:             meter,
		tokens:            tokens,
		clock:             clock,
		metrics:           m,
		logger:            logger.With().Str("component", "http").Logger(),
		authEnabled:       cfg.AuthEnabled,
		metricsPath:       cfg.MetricsPath,
		defaultWindowDays: cfg.DefaultWindowDays,
	}
}

// Router builds the chi router for the API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	if h.metricsPath != "" {
		r.Handle(h.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if h.authEnabled {
			r.Use(h.requireToken)
		}
		r.Get("/report/instances", h.DailyUsage)
		r.Get("/report/accounts", h.AccountOverviews)
		r.Post("/event", h.RecordEvent)
	})

	return r
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dailyUsageResponse mirrors the daily usage report on the wire.
type dailyUsageResponse struct {
	InstancesSeen map[string]int    `json:"instances_seen"`
	DailyUsage    []dayUsagePayload `json:"daily_usage"`
}

type dayUsagePayload struct {
	Date           string             `json:"date"`
	RuntimeSeconds map[string]float64 `json:"runtime_seconds"`
	Instances      map[string]int     `json:"instances"`
}

// DailyUsage serves GET /api/v1/report/instances.
func (h *Handler) DailyUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	opts := app.ReportOptions{
		AccountID:   r.URL.Query().Get("account_id"),
		NamePattern: r.URL.Query().Get("name_pattern"),
	}

	start := h.clock.Now()
	result, err := h.reports.DailyUsage(r.Context(), userID, window, opts)
	h.observe("daily_usage", start, err)
	if err != nil {
		h.respondReportError(w, err)
		return
	}

	resp := dailyUsageResponse{
		InstancesSeen: tagCounts(result.InstancesSeen),
		DailyUsage:    make([]dayUsagePayload, 0, len(result.Days)),
	}
	for _, day := range result.Days {
		resp.DailyUsage = append(resp.DailyUsage, dayUsagePayload{
			Date:           day.Date.Format(time.RFC3339),
			RuntimeSeconds: tagSeconds(day.RuntimeSeconds),
			Instances:      tagCounts(day.Instances),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// overviewResponse mirrors the account overview list on the wire.
type overviewResponse struct {
	CloudAccountOverviews []overviewPayload `json:"cloud_account_overviews"`
}

type overviewPayload struct {
	ID             string          `json:"id"`
	CloudAccountID string          `json:"cloud_account_id"`
	UserID         string          `json:"user_id"`
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	CreationDate   string          `json:"creation_date"`
	Images         *int            `json:"images"`
	Instances      *int            `json:"instances"`
	TagInstances   map[string]*int `json:"tag_instances"`
}

// AccountOverviews serves GET /api/v1/report/accounts.
func (h *Handler) AccountOverviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	opts := app.ReportOptions{
		AccountID:   r.URL.Query().Get("account_id"),
		NamePattern: r.URL.Query().Get("name_pattern"),
	}

	start := h.clock.Now()
	overviews, err := h.reports.AccountOverviews(r.Context(), userID, window, opts)
	h.observe("account_overview", start, err)
	if err != nil {
		h.respondReportError(w, err)
		return
	}

	resp := overviewResponse{CloudAccountOverviews: make([]overviewPayload, 0, len(overviews))}
	for _, ov := range overviews {
		payload := overviewPayload{
			ID:             ov.AccountID,
			CloudAccountID: ov.CloudAccountID,
			UserID:         ov.UserID,
			Type:           string(ov.CloudType),
			Name:           ov.Name,
			CreationDate:   ov.CreatedAt.Format(time.RFC3339),
			Images:         ov.Images,
			Instances:      ov.Instances,
			TagInstances:   make(map[string]*int, len(ov.TagInstances)),
		}
		for tag, count := range ov.TagInstances {
			payload.TagInstances[string(tag)] = count
		}
		resp.CloudAccountOverviews = append(resp.CloudAccountOverviews, payload)
	}
	respondJSON(w, http.StatusOK, resp)
}

// recordEventRequest is the ingestion payload.
type recordEventRequest struct {
	InstanceID string    `json:"instance_id"`
	ImageID    string    `json:"image_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

// RecordEvent serves POST /api/v1/event.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.InstanceID == "" || req.ImageID == "" {
		respondError(w, http.StatusBadRequest, "missing_field", "instance_id and image_id are required")
		return
	}

	e, err := h.meter.RecordEvent(r.Context(), req.InstanceID, req.ImageID, report.EventType(req.Type), req.OccurredAt)
	if errors.Is(err, app.ErrUnknownEventType) {
		respondError(w, http.StatusBadRequest, "invalid_type", "type must be power_on or power_off")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("record event failed")
		respondError(w, http.StatusInternalServerError, "store_error", "could not record event")
		return
	}

	if h.metrics != nil {
		h.metrics.EventsRecorded.WithLabelValues(string(e.Type)).Inc()
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": e.ID})
}

// resolveUserID takes user_id from the query, falling back to the
// authenticated token's user.
func (h *Handler) resolveUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		return userID, true
	}
	if t, ok := TokenFromContext(r.Context()); ok {
		return t.UserID, true
	}
	respondError(w, http.StatusBadRequest, "missing_user", "user_id query parameter required")
	return "", false
}

// parseWindow reads start/end query parameters (RFC3339), defaulting to the
// trailing configured number of days ending now.
func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (report.Window, bool) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")

	now := h.clock.Now()
	window := report.Window{
		Start: now.AddDate(0, 0, -h.defaultWindowDays),
		End:   now,
	}

	var err error
	if startStr != "" {
		if window.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339")
			return report.Window{}, false
		}
	}
	if endStr != "" {
		if window.End, err = time.Parse(time.RFC3339, endStr); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_end", "end must be RFC3339")
			return report.Window{}, false
		}
	}

	window.Start = window.Start.UTC()
	window.End = window.End.UTC()
	return window, true
}

func (h *Handler) respondReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidWindow):
		respondError(w, http.StatusBadRequest, "invalid_window", "start must be before end")
	case errors.Is(err, report.ErrMissingAccountMetadata):
		respondError(w, http.StatusUnprocessableEntity, "missing_metadata", "account creation time is unknown")
	default:
		h.logger.Error().Err(err).Msg("report computation failed")
		respondError(w, http.StatusInternalServerError, "report_error", "could not compute report")
	}
}

func (h *Handler) observe(kind string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ReportsTotal.WithLabelValues(kind).Inc()
	h.metrics.ReportDuration.WithLabelValues(kind).Observe(h.clock.Now().Sub(start).Seconds())
	if err != nil {
		h.metrics.ReportErrors.WithLabelValues(kind).Inc()
	}
}

func tagCounts(m map[cloud.Tag]int) map[string]int {
	out := make(map[string]int, len(m))
	for t, n := range m {
		out[string(t)] = n
	}
	return out
}

func tagSeconds(m map[cloud.Tag]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for t, n := range m {
		out[string(t)] = n
	}
	return out
}
