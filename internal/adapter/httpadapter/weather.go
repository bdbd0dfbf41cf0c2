package httpadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
	"github.com/couchcryptid/skywatcher-etl/internal/observability"
	"github.com/couchcryptid/skywatcher-etl/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// FeedIngester decodes a posted feed and hands the report to the sinks.
type FeedIngester interface {
	Ingest(ctx context.Context, raw domain.RawEvent) (domain.WeatherReport, error)
}

// ReportReader serves the latest decoded report.
type ReportReader interface {
	Latest() (domain.WeatherReport, bool)
	Forecast(region domain.Region) (domain.ForecastTimeline, int, bool)
}

// WeatherHandler serves the /api/v1 feed ingest and weather query routes.
type WeatherHandler struct {
	ingester     FeedIngester
	reports      ReportReader
	maxFeedBytes int64
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func NewWeatherHandler(ingester FeedIngester, reports ReportReader, maxFeedBytes int64, metrics *observability.Metrics, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		ingester:     ingester,
		reports:      reports,
		maxFeedBytes: maxFeedBytes,
		metrics:      metrics,
		logger:       logger,
	}
}

type ingestResponse struct {
	Status      string `json:"status"`
	ReportID    string `json:"report_id,omitempty"`
	CurrentHour int    `json:"current_hour,omitempty"`
	Regions     int    `json:"regions,omitempty"`
}

type slotErrorResponse struct {
	Error   string        `json:"error"`
	Region  domain.Region `json:"region"`
	RawSlot int           `json:"raw_slot"`
}

type regionResponse struct {
	Region     domain.Region             `json:"region"`
	ReportHour int                       `json:"report_hour"`
	EorzeaHour float64                   `json:"eorzea_hour"`
	Forecast   domain.ForecastTimeline   `json:"forecast"`
	Upcoming   []domain.WeatherCondition `json:"upcoming"`
}

func (h *WeatherHandler) postFeed(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxFeedBytes))
	if err != nil {
		h.metrics.HTTPFeeds.WithLabelValues("rejected").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "feed exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read feed body")
		return
	}

	report, err := h.ingester.Ingest(r.Context(), domain.RawEvent{
		Key:     []byte(middleware.GetReqID(r.Context())),
		Value:   body,
		Headers: map[string]string{"content_type": r.Header.Get("Content-Type")},
	})

	var slotErr *domain.SlotIndexError
	switch {
	case err == nil:
		h.metrics.HTTPFeeds.WithLabelValues("accepted").Inc()
		writeJSON(w, http.StatusAccepted, ingestResponse{
			Status:      "accepted",
			ReportID:    report.ID,
			CurrentHour: report.CurrentHour,
			Regions:     len(report.Forecasts),
		})
	case errors.Is(err, pipeline.ErrDuplicateFeed):
		h.metrics.HTTPFeeds.WithLabelValues("duplicate").Inc()
		writeJSON(w, http.StatusOK, ingestResponse{Status: "duplicate"})
	case errors.Is(err, domain.ErrMalformedFeed):
		h.metrics.HTTPFeeds.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &slotErr):
		h.metrics.HTTPFeeds.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, slotErrorResponse{
			Error:   slotErr.Error(),
			Region:  slotErr.Region,
			RawSlot: slotErr.RawSlot,
		})
	default:
		h.logger.Error("ingest feed failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusBadGateway, "failed to publish report")
	}
}

func (h *WeatherHandler) getReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := h.reports.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no weather report available yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *WeatherHandler) getRegion(w http.ResponseWriter, r *http.Request) {
	region, ok := domain.ParseRegion(chi.URLParam(r, "region"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown region")
		return
	}

	timeline, reportHour, ok := h.reports.Forecast(region)
	if !ok {
		writeError(w, http.StatusNotFound, "no forecast for region")
		return
	}

	eorzeaHour := domain.CurrentEorzeaHour()
	writeJSON(w, http.StatusOK, regionResponse{
		Region:     region,
		ReportHour: reportHour,
		EorzeaHour: eorzeaHour,
		Forecast:   timeline,
		Upcoming:   domain.UpcomingWeather(&timeline, reportHour, eorzeaHour),
	})
}
