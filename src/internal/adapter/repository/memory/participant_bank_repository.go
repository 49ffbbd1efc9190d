package memory

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

//go:embed participant_banks.toml
var defaultRegistryTOML string

type registryFile struct {
	Bank []domain.ParticipantBank `toml:"bank"`
}

// ParticipantBankRepository serves the fixed registry of institutions reachable
// through the interbank switch.
type ParticipantBankRepository struct {
	banks []domain.ParticipantBank
}

// NewParticipantBankRepository loads the registry from path, or from the
// embedded default when path is empty.
func NewParticipantBankRepository(path string) (*ParticipantBankRepository, error) {
	var file registryFile

	path = strings.TrimSpace(path)
	if path == "" {
		if _, err := toml.Decode(defaultRegistryTOML, &file); err != nil {
			return nil, fmt.Errorf("decode default bank registry: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return nil, fmt.Errorf("decode bank registry %s: %w", path, err)
		}
	}

	banks := make([]domain.ParticipantBank, 0, len(file.Bank))
	seen := make(map[string]struct{}, len(file.Bank))
	for _, bank := range file.Bank {
		code := strings.ToUpper(strings.TrimSpace(bank.BankCode))
		name := strings.TrimSpace(bank.BankName)
		if code == "" || name == "" {
			return nil, fmt.Errorf("bank registry entry %q has an empty code or name", bank.BankName)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("bank registry has duplicate code %s", code)
		}
		seen[code] = struct{}{}
		banks = append(banks, domain.ParticipantBank{BankCode: code, BankName: name})
	}

	return &ParticipantBankRepository{banks: banks}, nil
}

func (r *ParticipantBankRepository) GetAll(_ context.Context) ([]domain.ParticipantBank, error) {
	out := make([]domain.ParticipantBank, len(r.banks))
	copy(out, r.banks)
	return out, nil
}
