package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/ports/adapter"
	"pet-hero-backend/internal/domain/ports/repository"
)

// NotifyUseCase sends the completion/failure push. Strictly best effort:
// a missing token is a no-op, a send failure is logged and swallowed, and
// nothing here is ever retried or allowed to fail the job.
type NotifyUseCase interface {
	NotifySuccess(ctx context.Context, userID, jobID string)
	NotifyFailure(ctx context.Context, userID, jobID string)
}

var _ NotifyUseCase = (*notifyUC)(nil)

type notifyUC struct {
	users  repository.UserAccountRepository
	sender adapter.PushSender
	log    *zerolog.Logger
}

func NewNotifyUseCase(users repository.UserAccountRepository, sender adapter.PushSender, logger *zerolog.Logger) *notifyUC {
	return &notifyUC{users: users, sender: sender, log: logger}
}

func (n *notifyUC) NotifySuccess(ctx context.Context, userID, jobID string) {
	n.send(ctx, userID, jobID, adapter.PushNotification{
		Title: "Your hero is ready!",
		Body:  "Your pet's hero transformation is complete. Come take a look!",
		Data:  map[string]string{"jobId": jobID, "type": "photo_done"},
	})
}

func (n *notifyUC) NotifyFailure(ctx context.Context, userID, jobID string) {
	n.send(ctx, userID, jobID, adapter.PushNotification{
		Title: "Something went wrong",
		Body:  "We couldn't process your pet's photo this time. Your credit was not used.",
		Data:  map[string]string{"jobId": jobID, "type": "photo_error"},
	})
}

func (n *notifyUC) send(ctx context.Context, userID, jobID string, note adapter.PushNotification) {
	u, err := n.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			n.log.Warn().Err(err).Str("user_id", userID).Msg("push token lookup failed")
		}
		return
	}
	if u.PushToken == "" {
		return
	}
	if err := n.sender.Send(ctx, u.PushToken, note); err != nil {
		n.log.Warn().Err(err).Str("job_id", jobID).Str("user_id", userID).Msg("push delivery failed")
	}
}
