package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
)

// ErrDuplicateFeed is returned for a payload identical to one decoded recently.
// The upstream collector republishes the same document until the weather
// window changes, so most polls are duplicates.
var ErrDuplicateFeed = errors.New("duplicate weather feed")

// FeedTransformer implements Transformer: it parses the raw feed text, decodes
// it and stamps the resulting report.
type FeedTransformer struct {
	seen   *digestCache // nil when duplicate suppression is disabled
	logger *slog.Logger
}

// NewTransformer creates a FeedTransformer. A dedupeSize of 0 disables
// duplicate suppression.
func NewTransformer(dedupeSize int, logger *slog.Logger) *FeedTransformer {
	t := &FeedTransformer{logger: logger}
	if dedupeSize > 0 {
		t.seen = newDigestCache(dedupeSize)
	}
	return t
}

// Transform parses and decodes a feed. With duplicate suppression enabled the
// payload digest stays reserved once Transform succeeds; callers that fail to
// load the report hand the feed back through Release.
func (t *FeedTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.WeatherReport, error) {
	feed := domain.ParseRawFeed(raw.Value)
	if feed == nil {
		return domain.WeatherReport{}, domain.ErrMalformedFeed
	}

	report, err := domain.Decode(feed)
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("decode feed: %w", err)
	}

	if t.seen != nil && !t.seen.reserve(domain.PayloadDigest(raw.Value)) {
		return domain.WeatherReport{}, ErrDuplicateFeed
	}

	report = domain.StampReport(report, raw.Value)
	t.logger.Debug("feed decoded",
		"report_id", report.ID,
		"current_hour", report.CurrentHour,
		"records", len(feed.Records),
		"regions", len(report.Forecasts),
	)
	return report, nil
}

// Release drops the duplicate reservation for a feed whose report was not
// loaded, so a retry of the same payload is published.
func (t *FeedTransformer) Release(raw domain.RawEvent) {
	if t.seen == nil {
		return
	}
	t.seen.forget(domain.PayloadDigest(raw.Value))
}
