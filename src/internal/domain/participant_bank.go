package domain

import "context"

type ParticipantBank struct {
	BankName string `toml:"name"`
	BankCode string `toml:"code"`
}

type ParticipantBankRepository interface {
	GetAll(ctx context.Context) ([]ParticipantBank, error)
}
