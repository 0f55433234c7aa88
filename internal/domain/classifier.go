package domain

import (
	"fmt"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// Classify maps the phases run for a mutant to its verdict. The last phase
// is the one that decided the run.
func Classify(phases []m.PhaseResult) m.Classification {
	if len(phases) == 0 {
		return m.Skipped
	}

	last := phases[len(phases)-1]

	switch last.Status {
	case m.PhaseTimeout:
		return m.Timeout
	case m.PhaseFailure:
		if last.Phase == m.PhaseTest {
			return m.Caught
		}

		return m.Unviable
	case m.PhaseSuccess:
		if last.Phase == m.PhaseTest {
			return m.Missed
		}
	case m.PhaseInterrupted:
	}

	return m.Skipped
}

// CheckBaseline returns ErrBaselineFailed unless every baseline phase
// succeeded.
func CheckBaseline(baseline m.Outcome) error {
	for _, p := range baseline.Phases {
		if p.Status != m.PhaseSuccess {
			return fmt.Errorf("%w: %s phase %s (exit code %d)", ErrBaselineFailed, p.Phase, p.Status, p.ExitCode)
		}
	}

	if len(baseline.Phases) == 0 || baseline.Phases[len(baseline.Phases)-1].Phase != m.PhaseTest {
		return fmt.Errorf("%w: tests did not run", ErrBaselineFailed)
	}

	return nil
}
