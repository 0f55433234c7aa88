package model

import "time"

// PhaseRecord is the serialized form of a PhaseResult.
type PhaseRecord struct {
	Phase      Phase       `json:"phase"`
	Argv       []string    `json:"argv"`
	ExitCode   int         `json:"exit_code"`
	Status     PhaseStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
}

// OutcomeRecord is the serialized form of an Outcome. Field names are part of
// the report format and must stay stable.
type OutcomeRecord struct {
	Index          int            `json:"index"`
	ID             string         `json:"id,omitempty"`
	File           Path           `json:"file,omitempty"`
	Package        string         `json:"package,omitempty"`
	Function       string         `json:"function,omitempty"`
	Line           int            `json:"line,omitempty"`
	Column         int            `json:"column,omitempty"`
	EndLine        int            `json:"end_line,omitempty"`
	EndColumn      int            `json:"end_column,omitempty"`
	Genre          string         `json:"genre,omitempty"`
	Family         Family         `json:"family,omitempty"`
	Description    string         `json:"description"`
	Replacement    string         `json:"replacement,omitempty"`
	Classification Classification `json:"classification"`
	DurationMS     int64          `json:"duration_ms"`
	Phases         []PhaseRecord  `json:"phases"`
	Output         string         `json:"output,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// ReportDocument is the serialized form of a Report.
type ReportDocument struct {
	RunID       string          `json:"run_id"`
	StartedAt   time.Time       `json:"started_at"`
	DurationMS  int64           `json:"duration_ms"`
	Shard       int             `json:"shard"`
	ShardCount  int             `json:"shard_count"`
	Interrupted bool            `json:"interrupted"`
	Summary     Summary         `json:"summary"`
	Baseline    *OutcomeRecord  `json:"baseline,omitempty"`
	Outcomes    []OutcomeRecord `json:"outcomes"`
}

// NewOutcomeRecord converts an outcome. Output is included only when
// withOutput is set.
func NewOutcomeRecord(o Outcome, withOutput bool) OutcomeRecord {
	rec := OutcomeRecord{
		Index:          o.Index,
		Description:    o.Name(),
		Classification: o.Classification,
		DurationMS:     o.Duration.Milliseconds(),
		Phases:         make([]PhaseRecord, 0, len(o.Phases)),
		Error:          o.Error,
	}

	if c := o.Candidate; c != nil {
		rec.ID = c.ID
		rec.File = c.File
		rec.Package = c.Package
		rec.Function = c.Function
		rec.Line = c.Span.StartLine
		rec.Column = c.Span.StartColumn
		rec.EndLine = c.Span.EndLine
		rec.EndColumn = c.Span.EndColumn
		rec.Genre = c.Genre.String()
		rec.Family = c.Family
		rec.Description = c.Description
		rec.Replacement = c.Replacement
	}

	for _, p := range o.Phases {
		rec.Phases = append(rec.Phases, PhaseRecord{
			Phase:      p.Phase,
			Argv:       p.Argv,
			ExitCode:   p.ExitCode,
			Status:     p.Status,
			DurationMS: p.Duration.Milliseconds(),
		})
	}

	if withOutput {
		rec.Output = string(o.Output)
	}

	return rec
}

// NewReportDocument converts a report.
func NewReportDocument(r Report, withOutput bool) ReportDocument {
	doc := ReportDocument{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		DurationMS:  r.Duration.Milliseconds(),
		Shard:       r.Shard,
		ShardCount:  r.ShardCount,
		Interrupted: r.Interrupted,
		Summary:     r.Summary,
		Outcomes:    make([]OutcomeRecord, 0, len(r.Outcomes)),
	}

	if r.Baseline != nil {
		baseline := NewOutcomeRecord(*r.Baseline, withOutput)
		doc.Baseline = &baseline
	}

	for _, o := range r.Outcomes {
		doc.Outcomes = append(doc.Outcomes, NewOutcomeRecord(o, withOutput))
	}

	return doc
}
