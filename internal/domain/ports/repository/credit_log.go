package repository

import (
	"context"

	"pet-hero-backend/internal/domain/model"
)

// CreditUsageLogRepository appends audit entries. Append-only: no update or
// delete operations exist on purpose.
type CreditUsageLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.CreditUsageLogEntry) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.CreditUsageLogEntry, error)
}
