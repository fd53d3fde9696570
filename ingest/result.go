package ingest

// OutcomeKind classifies the terminal state of one processed record.
type OutcomeKind int

const (
	// OutcomeStored means the record passed the gate and was upserted.
	OutcomeStored OutcomeKind = iota + 1
	// OutcomeRejected means one or more quality checks failed.
	OutcomeRejected
	// OutcomeUnusable means the record never became a candidate
	// (missing or empty text).
	OutcomeUnusable
)

// Outcome is the explicit result of processing one record; the pipeline
// aggregates outcomes instead of threading errors through control flow.
type Outcome struct {
	Kind    OutcomeKind
	Hash    string
	Reasons []string
}

// Summary aggregates one run's terminal outcomes. Malformed counts input
// lines that never parsed into a record.
type Summary struct {
	Upserts   int `json:"upserts"`
	Rejected  int `json:"-"`
	Unusable  int `json:"-"`
	Malformed int `json:"-"`
}

func (s *Summary) add(outcome Outcome) {
	switch outcome.Kind {
	case OutcomeStored:
		s.Upserts++
	case OutcomeRejected:
		s.Rejected++
	case OutcomeUnusable:
		s.Unusable++
	}
}

// Skipped returns the number of records that reached a terminal outcome
// without being stored.
func (s *Summary) Skipped() int {
	return s.Rejected + s.Unusable + s.Malformed
}
