package model

import "time"

// UserAccount is the ledger counterparty: one credit buys one completed
// transformation. Credits are only mutated inside the ledger transaction.
type UserAccount struct {
	ID        string
	Credits   int
	PushToken string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *UserAccount) HasCredits() bool { return u.Credits > 0 }
