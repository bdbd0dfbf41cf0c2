// Command genmock generates a synthetic Skywatcher feed fixture together with
// the report it decodes to. The report is produced by the domain package, so
// the pair always matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -hour 16 -seed 7 \
//	  -feed-out data/mock/skywatcher_feed_generated.json \
//	  -report-out data/mock/skywatcher_report_generated.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// stampedAt is the fixed processed_at used for reproducible report IDs.
var stampedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	maxRegionCode    = 24
	maxConditionCode = 18
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	hour := flag.Int("hour", 8, "Eorzea hour the feed was published at (0, 8 or 16)")
	seed := flag.Uint64("seed", 1, "random seed for weather codes")
	feedOut := flag.String("feed-out", "", "output path for the raw feed fixture")
	reportOut := flag.String("report-out", "", "output path for the decoded report fixture")
	flag.Parse()

	if *feedOut == "" || *reportOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -feed-out, -report-out")
	}

	feed := generateFeed(*hour, rand.New(rand.NewPCG(*seed, *seed)))
	payload, err := json.MarshalIndent(feed, "", " ")
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(stampedAt))
	defer domain.SetClock(nil)

	report, err := domain.Decode(domain.ParseRawFeed(payload))
	if err != nil {
		return fmt.Errorf("decode generated feed: %w", err)
	}
	report = domain.StampReport(report, payload)

	if err := writeJSON(*feedOut, feed); err != nil {
		return err
	}
	if err := writeJSON(*reportOut, report); err != nil {
		return err
	}

	fmt.Printf("wrote %d records (%d regions) for hour %d\n", len(feed.Records), len(report.Forecasts), *hour)
	return nil
}

// generateFeed emits one record per known area and window, current window
// first, the way the upstream collector orders them.
func generateFeed(hour int, rng *rand.Rand) domain.RawFeed {
	feed := domain.RawFeed{CurrentHour: hour}
	for code := 1; code <= maxRegionCode; code++ {
		if _, ok := domain.LookupRegion(code); !ok {
			continue
		}
		for slot := -1; slot < domain.SlotCount-1; slot++ {
			feed.Records = append(feed.Records, domain.RawFeedRecord{
				SlotIndex:     slot,
				RegionCode:    code,
				ConditionCode: rng.IntN(maxConditionCode) + 1,
			})
		}
	}
	return feed
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
