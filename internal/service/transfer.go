package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"rating-arena/internal/model"
	"rating-arena/internal/pkg/lock"
	"rating-arena/internal/repository"
)

// Transfer errors.
var (
	ErrSelfGift      = errors.New("cannot gift to yourself")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// InsufficientRatingError is returned when a gift exceeds the sender's
// balance.
type InsufficientRatingError struct {
	Required  int64
	Available int64
}

func (e *InsufficientRatingError) Error() string {
	return fmt.Sprintf("insufficient rating: need %d, have %d", e.Required, e.Available)
}

// TransferService moves rating between accounts as gifts.
type TransferService struct {
	accounts *repository.AccountRepository
	locks    *lock.AccountLock
}

// NewTransferService creates a new TransferService instance.
func NewTransferService(accounts *repository.AccountRepository, locks *lock.AccountLock) *TransferService {
	return &TransferService{accounts: accounts, locks: locks}
}

// Gift transfers rating from one account to another in the same chat.
// The debit and credit commit together or not at all.
func (s *TransferService) Gift(ctx context.Context, chatID, fromID, toID, amount int64) (*model.Account, *model.Account, error) {
	if fromID == toID {
		return nil, nil, ErrSelfGift
	}
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	keyFrom := lock.Key{UserID: fromID, ChatID: chatID}
	keyTo := lock.Key{UserID: toID, ChatID: chatID}

	var sender, recipient *model.Account
	err := s.locks.WithPairLock(keyFrom, keyTo, func() error {
		var err error
		sender, recipient, err = s.accounts.MutatePair(ctx, chatID, fromID, toID,
			func(_ pgx.Tx, from, to *model.Account) ([]model.HistoryEntry, error) {
				if from.Rating < amount {
					return nil, &InsufficientRatingError{Required: amount, Available: from.Rating}
				}
				from.Rating -= amount
				to.Rating += amount
				details := fmt.Sprintf("to %s", to.Username)
				return []model.HistoryEntry{
					{UserID: from.UserID, ChatID: chatID, Type: model.HistoryGiftSent, Delta: -amount, Details: details},
					{UserID: to.UserID, ChatID: chatID, Type: model.HistoryGiftReceived, Delta: amount, Details: fmt.Sprintf("from %s", from.Username)},
				}, nil
			})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int64("chat_id", chatID).
		Int64("from", fromID).
		Int64("to", toID).
		Int64("amount", amount).
		Msg("gift sent")
	return sender, recipient, nil
}
