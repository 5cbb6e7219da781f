package lifecycle

import (
	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

// guard checks whether a record may take a given edge. A nil return allows
// the transition.
type guard func(rec *model.TestRecord) error

// transitions is the single source of truth for the lifecycle graph.
// Cancellation edges are handled separately, they exist from every
// non-terminal state.
var transitions = map[model.Status]map[model.Status]guard{
	model.StatusOrdered: {
		model.StatusApproved: nil,
	},
	model.StatusApproved: {
		model.StatusSampleProcessing: requireHalfPaid,
	},
	model.StatusSampleProcessing: {
		model.StatusSampleTaken: nil,
	},
	model.StatusSampleTaken: {
		model.StatusReported: requireFullyPaidWithReports,
	},
	model.StatusReported: {
		model.StatusConfirmed: requireReports,
	},
	model.StatusConfirmed: {
		// Revert of a premature confirmation, not a forward edge.
		model.StatusReported: nil,
	},
}

// requireHalfPaid enforces the minimum-50% rule before sample processing.
// Odd totals round the requirement up.
func requireHalfPaid(rec *model.TestRecord) error {
	required := (rec.TotalCents + 1) / 2
	if rec.PaidCents < required {
		return apperrors.NewPaymentInsufficient(required, rec.PaidCents)
	}
	return nil
}

func requireFullyPaidWithReports(rec *model.TestRecord) error {
	if rec.PaidCents < rec.TotalCents {
		return apperrors.NewPaymentInsufficient(rec.TotalCents, rec.PaidCents)
	}
	if len(rec.Reports) == 0 {
		return apperrors.Precondition("at least one result file must be uploaded before the record is reported")
	}
	return nil
}

func requireReports(rec *model.TestRecord) error {
	if len(rec.Reports) == 0 {
		return apperrors.Precondition("cannot confirm a record without result files")
	}
	return nil
}

// Validate reports whether rec may move to the target status, checking the
// edge and running its guard. The record is not modified.
func Validate(rec *model.TestRecord, to model.Status) error {
	if !to.Valid() {
		return apperrors.Validation("unknown status "+string(to), nil)
	}
	if to == rec.Status {
		// Repeating a transition already satisfied is an error, not a no-op.
		return apperrors.InvalidTransition(string(rec.Status), string(to))
	}
	if to == model.StatusCancelled {
		if rec.Status == model.StatusConfirmed {
			return apperrors.Precondition("confirmed records cannot be cancelled")
		}
		return nil
	}
	if rec.Status == model.StatusCancelled {
		return apperrors.Precondition("cancelled records cannot be modified")
	}

	g, ok := transitions[rec.Status][to]
	if !ok {
		return apperrors.InvalidTransition(string(rec.Status), string(to))
	}
	if g != nil {
		return g(rec)
	}
	return nil
}
