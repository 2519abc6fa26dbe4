package model

import "time"

// Purpose tags for credit usage entries.
const (
	CreditPurposeHeroTransform = "hero_transform"
	CreditPurposeNoCredits     = "hero_transform_no_credits"
)

// CreditUsageLogEntry is an append-only audit record written in the same
// transaction as the job's terminal write. Entries are never updated.
type CreditUsageLogEntry struct {
	ID               string
	UserID           string
	JobID            string
	CreditsDeducted  int
	Purpose          string
	RemainingCredits int
	Theme            string
	Note             string
	CreatedAt        time.Time
}
