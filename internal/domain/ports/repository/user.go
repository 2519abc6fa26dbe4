package repository

import (
	"context"

	"pet-hero-backend/internal/domain/model"
)

// UserAccountRepository reads and mutates user credit balances. Balance
// writes happen only inside the ledger transaction; FindByIDForUpdate locks
// the row so concurrent deductions for the same user serialize.
type UserAccountRepository interface {
	Save(ctx context.Context, tx Tx, u *model.UserAccount) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserAccount, error)
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.UserAccount, error)
	DeductCredit(ctx context.Context, tx Tx, id string) (remaining int, err error)
}
