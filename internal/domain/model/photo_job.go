package model

import "time"

type PhotoJobStatus string

const (
	PhotoJobStatusProcessing PhotoJobStatus = "processing"
	PhotoJobStatusDone       PhotoJobStatus = "done"
	PhotoJobStatusError      PhotoJobStatus = "error"
)

// PhotoJob is one pet-photo transformation request. It is created by the
// upload flow in `processing` state and transitions exactly once to `done`
// or `error`; the pipeline never revisits a job after that.
type PhotoJob struct {
	ID          string
	UserID      string
	OriginalURL string
	Status      PhotoJobStatus
	ResultURL   string
	Theme       string
	Analysis    string
	Error       string
	// CreditError flags a job whose terminal write succeeded outside the
	// ledger transaction; billing for it is reconciled out-of-band.
	CreditError string
	CreatedAt   time.Time
	PickedAt    *time.Time
	ProcessedAt *time.Time
}

// Terminal reports whether the job has reached a final state.
func (j *PhotoJob) Terminal() bool {
	return j.Status == PhotoJobStatusDone || j.Status == PhotoJobStatusError
}
