package detect

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/tracking"
)

// Report file name prefixes under the reports directory.
const (
	TrackingPrefix = "jdk25_tracking_with_prs_"
	OpenPRsPrefix  = "jdk25_open_prs_tracking_"
)

// Paths returns the tracking and open-PR report paths for a scan date.
func Paths(dir string, now time.Time) (trackingPath, openPath string) {
	stamp := Stamp(now)
	return filepath.Join(dir, TrackingPrefix+stamp+".json"), filepath.Join(dir, OpenPRsPrefix+stamp+".json")
}

// HistoryPattern globs every tracking report in dir.
func HistoryPattern(dir string) string {
	return filepath.Join(dir, TrackingPrefix+"*.json")
}

// Write saves both reports and returns their paths.
func Write(ctx context.Context, dir string, now time.Time, res Result) (trackingPath, openPath string, err error) {
	trackingPath, openPath = Paths(dir, now)
	entries := res.Entries
	if entries == nil {
		entries = []tracking.Entry{}
	}
	open := res.Open
	if open == nil {
		open = []tracking.OpenEntry{}
	}
	if err := tracking.WriteJSON(trackingPath, entries); err != nil {
		return "", "", fmt.Errorf("write tracking report: %w", err)
	}
	if err := tracking.WriteJSON(openPath, open); err != nil {
		return "", "", fmt.Errorf("write open PR report: %w", err)
	}
	logging.FromContext(ctx).Info().
		Str("tracking", trackingPath).
		Str("open_prs", openPath).
		Int("plugins", len(entries)).
		Int("compatible", res.Compatible()).
		Msg("Wrote detection reports")
	return trackingPath, openPath, nil
}
