package reconcile

import "github.com/roach88/blup/internal/blacklist"

// Report summarizes one run. Added and Removed are sorted.
type Report struct {
	RunID       string   `json:"run_id"`
	Strategy    Strategy `json:"strategy"`
	Include     string   `json:"include"`
	DryRun      bool     `json:"dry_run"`
	Records     int      `json:"records"`
	Desired     int      `json:"desired"`
	Current     int      `json:"current"`
	Added       []string `json:"added"`
	Removed     []string `json:"removed"`
	Inserted    int      `json:"inserted"`
	Deleted     int      `json:"deleted"`
	Ignored     int      `json:"ignored"`
	Fingerprint string   `json:"fingerprint"`
}

func (r *Reconciler) newReport(runID string, records int, desired blacklist.Set) *Report {
	return &Report{
		RunID:       runID,
		Strategy:    r.opts.Strategy,
		Include:     r.opts.Include.String(),
		Records:     records,
		Desired:     desired.Len(),
		Added:       []string{},
		Removed:     []string{},
		Fingerprint: blacklist.Fingerprint(desired),
	}
}

func (rep *Report) setChanges(current blacklist.Set, changes Changes) {
	rep.Current = current.Len()
	rep.Added = changes.Added.Sorted()
	rep.Removed = changes.Removed.Sorted()
}
