package collector

import (
	"context"

	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/prs"
	"jdk25tracker/internal/tracking"
)

// Paths names the files a run writes. Empty paths are skipped.
type Paths struct {
	Matched string
	Found   string
	Grouped string
	Failing string
}

// DefaultPaths are the file names upload and the dashboards expect.
func DefaultPaths() Paths {
	return Paths{
		Matched: "jenkins_prs.json",
		Found:   "found_prs.json",
		Grouped: "grouped_prs.json",
		Failing: "failing-prs.json",
	}
}

// Write saves the matched PRs, every found PR (when there are any), the
// matched PRs grouped by title, and the failing ones.
func Write(ctx context.Context, p Paths, res Result) error {
	log := logging.FromContext(ctx)
	matched := res.Matched
	if matched == nil {
		matched = []prs.PR{}
	}

	if p.Matched != "" {
		if err := tracking.WriteJSON(p.Matched, matched); err != nil {
			return err
		}
		log.Info().Str("path", p.Matched).Int("prs", len(matched)).Msg("Wrote matched PRs")
	}
	if p.Found != "" {
		if len(res.Found) == 0 {
			log.Info().Str("path", p.Found).Msg("No pull requests found, not writing")
		} else if err := tracking.WriteJSON(p.Found, res.Found); err != nil {
			return err
		} else {
			log.Info().Str("path", p.Found).Int("prs", len(res.Found)).Msg("Wrote found PRs")
		}
	}
	if p.Grouped != "" {
		groups := prs.GroupByTitle(matched)
		if err := tracking.WriteJSON(p.Grouped, groups); err != nil {
			return err
		}
		log.Info().Str("path", p.Grouped).Int("groups", len(groups)).Msg("Wrote grouped PRs")
	}
	if p.Failing != "" {
		if err := tracking.WriteJSON(p.Failing, prs.FailingDocument(matched)); err != nil {
			return err
		}
		log.Info().Str("path", p.Failing).Msg("Wrote failing PRs")
	}
	return nil
}
