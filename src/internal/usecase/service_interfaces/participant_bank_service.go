package service_interfaces

import (
	"context"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

type ParticipantBankService interface {
	GetParticipantBanks(ctx context.Context) ([]domain.ParticipantBank, error)
	Lookup(ctx context.Context, code string) (domain.ParticipantBank, error)
	Suggest(ctx context.Context, input string) (domain.ParticipantBank, bool)
}
