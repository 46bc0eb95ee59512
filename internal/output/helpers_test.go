package output

import (
	"time"

	"jdk25tracker/internal/validate"
)

func sampleReport() validate.Report {
	return validate.Report{
		Generated: time.Date(2025, 10, 9, 8, 0, 0, 0, time.UTC),
		Findings: []validate.Finding{
			{Status: validate.StatusFound, Name: "git", Repository: "jenkinsci/git-plugin",
				ManualPR: "https://github.com/jenkinsci/git-plugin/pull/10", AutomatedPR: "https://github.com/jenkinsci/git-plugin/pull/10",
				ManualMerged: "TRUE", AutomatedMerged: "true", PR: validate.OutcomeMatch, Merge: validate.OutcomeMatch},
			{Status: validate.StatusFound, Name: "ant", Repository: "jenkinsci/ant-plugin",
				ManualPR: "https://github.com/jenkinsci/ant-plugin/pull/2", AutomatedPR: "https://github.com/jenkinsci/ant-plugin/pull/3",
				ManualMerged: "FALSE", AutomatedMerged: "true", PR: validate.OutcomeMismatch, Merge: validate.OutcomeMismatch},
			{Status: validate.StatusMissing, Name: "mailer", ManualPR: "https://github.com/jenkinsci/mailer-plugin/pull/1"},
			{Status: validate.StatusNew, Name: "job-dsl", Repository: "jenkinsci/job-dsl-plugin"},
		},
		Summary: validate.Summary{
			Manual: 3, Automated: 3, Found: 2, Missing: 1,
			PRMatches: 1, PRMismatches: 1, MergeMatches: 1, MergeMismatches: 1, Additional: 1,
		},
	}
}
