// Package campaign drives the sequential send loop and accumulates
// per-recipient outcomes.
package campaign

import (
	"time"

	"github.com/stratomail/blast/internal/recipient"
)

// OutcomeKind classifies what happened to one recipient.
type OutcomeKind string

const (
	OutcomeSent              OutcomeKind = "sent"
	OutcomeWouldSend         OutcomeKind = "would_send" // dry-run
	OutcomeSkippedInvalid    OutcomeKind = "skipped_invalid"
	OutcomeSkippedDuplicate  OutcomeKind = "skipped_duplicate"
	OutcomeSkippedSuppressed OutcomeKind = "skipped_suppressed"
	OutcomeFailed            OutcomeKind = "failed"
)

// Outcome is the result for exactly one recipient record.
type Outcome struct {
	Address string
	Kind    OutcomeKind
	Reason  string
}

// Summary aggregates one run's outcomes. It is built fresh per run and
// never persisted.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Sent              int
	WouldSend         int
	SkippedInvalid    int
	SkippedDuplicate  int
	SkippedSuppressed int
	Failed            int

	// Failures lists failed recipients with reasons, in send order.
	Failures []Outcome
}

// Record folds one outcome into the summary.
func (s *Summary) Record(o Outcome) {
	switch o.Kind {
	case OutcomeSent:
		s.Sent++
	case OutcomeWouldSend:
		s.WouldSend++
	case OutcomeSkippedInvalid:
		s.SkippedInvalid++
	case OutcomeSkippedDuplicate:
		s.SkippedDuplicate++
	case OutcomeSkippedSuppressed:
		s.SkippedSuppressed++
	case OutcomeFailed:
		s.Failed++
		s.Failures = append(s.Failures, o)
	}
}

// Total returns the number of records accounted for.
func (s *Summary) Total() int {
	return s.Sent + s.WouldSend + s.SkippedInvalid + s.SkippedDuplicate + s.SkippedSuppressed + s.Failed
}

// outcomeForRejection maps a normalizer rejection onto the outcome
// taxonomy.
func outcomeForRejection(rej recipient.Rejection) Outcome {
	kind := OutcomeSkippedInvalid
	if rej.Reason == recipient.ReasonDuplicateAddress {
		kind = OutcomeSkippedDuplicate
	}
	return Outcome{
		Address: rej.Address,
		Kind:    kind,
		Reason:  string(rej.Reason),
	}
}
