// Command decode turns a single Skywatcher feed document into a weather
// report and prints it as JSON. It reads the feed from a file or stdin.
//
// Usage:
//
//	go run ./cmd/decode -in data/mock/skywatcher_feed_hour14.json
//	curl -s $FEED_URL | go run ./cmd/decode -region mor_dhona
//
// A malformed document decodes to the empty report. An out-of-range slot
// index is reported on stderr and exits with status 1.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "-", "feed file to decode, - for stdin")
	region := fs.String("region", "", "print only this region's timeline, e.g. mor_dhona")
	stamp := fs.String("stamp", "", "RFC3339 time to stamp the report with an id and processed_at")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	payload, err := readInput(*in, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read feed: %v\n", err)
		return 1
	}

	report, err := domain.Decode(domain.ParseRawFeed(payload))
	var slotErr *domain.SlotIndexError
	if errors.As(err, &slotErr) {
		fmt.Fprintf(stderr, "decode feed: %v\n", err)
		return 1
	}

	if *stamp != "" {
		at, err := time.Parse(time.RFC3339, *stamp)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -stamp: %v\n", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(at))
		defer domain.SetClock(nil)
		report = domain.StampReport(report, payload)
	}

	var out any = report
	if *region != "" {
		r, ok := domain.ParseRegion(*region)
		if !ok {
			fmt.Fprintf(stderr, "unknown region %q\n", *region)
			return 2
		}
		timeline, ok := report.Forecast(r)
		if !ok {
			fmt.Fprintf(stderr, "no forecast for %s\n", r)
			return 1
		}
		out = map[string]any{
			"region":       r,
			"current_hour": report.CurrentHour,
			"forecast":     timeline,
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "encode report: %v\n", err)
		return 1
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
