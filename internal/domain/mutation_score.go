package domain

import (
	m "gooze.dev/pkg/gomutants/internal/model"
	pkg "gooze.dev/pkg/gomutants/pkg"
)

// MutationScore is the percentage of scored mutants that were caught or
// timed out. Unviable and skipped mutants are not scored; with nothing to
// score the result is 100.
func MutationScore(s m.Summary) float64 {
	detected := s.Caught + s.Timeout
	total := detected + s.Missed

	if total == 0 {
		return 100.0
	}

	return 100.0 * float64(detected) / float64(total)
}

// Summarize counts outcomes and computes their score.
func Summarize(outcomes []m.Outcome) m.Summary {
	var s m.Summary

	for _, o := range outcomes {
		s.Add(o.Classification)
	}

	s.Score = MutationScore(s)

	return s
}

func summaryFromRecords(records pkg.FileSpill[m.OutcomeRecord]) (m.Summary, error) {
	var s m.Summary

	err := records.Range(func(_ uint64, rec m.OutcomeRecord) error {
		s.Add(rec.Classification)
		return nil
	})
	if err != nil {
		return m.Summary{}, err
	}

	s.Score = MutationScore(s)

	return s, nil
}
