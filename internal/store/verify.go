package store

import (
	"context"
	"fmt"
)

// Verification compares a fresh extraction against the latest stored run.
type Verification struct {
	RunID         string
	StoredStatus  string
	Stored        string
	Current       string
	Match         bool
	StoredErrors  int
	CurrentErrors int
}

// Verify reads the latest run for the selector and compares its properties
// fingerprint with current. A missing run yields ErrNotFound.
func (s *ResultStore) Verify(ctx context.Context, depID, cycleIndex int, current string, currentErrors int) (*Verification, error) {
	run, err := s.Latest(ctx, depID, cycleIndex)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		RunID:         run.RunID,
		StoredStatus:  string(run.Status),
		Stored:        run.Fingerprint,
		Current:       current,
		Match:         run.Fingerprint == current,
		StoredErrors:  run.ErrorCount,
		CurrentErrors: currentErrors,
	}

	if v.Match {
		s.logger.Infow("Verification passed", "run_id", run.RunID, "fingerprint", current)
	} else {
		s.logger.Warnw("Verification failed",
			"run_id", run.RunID,
			"stored", run.Fingerprint,
			"current", current)
	}
	return v, nil
}

// String renders a one-line report.
func (v *Verification) String() string {
	state := "MATCH"
	if !v.Match {
		state = "MISMATCH"
	}
	return fmt.Sprintf("%s run=%s stored=%s current=%s errors=%d/%d",
		state, v.RunID, v.Stored, v.Current, v.StoredErrors, v.CurrentErrors)
}
