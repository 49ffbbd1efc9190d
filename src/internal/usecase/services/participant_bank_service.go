package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

// minSuggestionSimilarity is the normalized similarity a registry entry needs
// before it is offered as a "did you mean".
const minSuggestionSimilarity = 0.5

type ParticipantBankService struct {
	participantBankRepo domain.ParticipantBankRepository
	ownBankCode         string
}

func NewParticipantBankService(participantBankRepo domain.ParticipantBankRepository, ownBankCode string) *ParticipantBankService {
	return &ParticipantBankService{
		participantBankRepo: participantBankRepo,
		ownBankCode:         strings.ToUpper(strings.TrimSpace(ownBankCode)),
	}
}

// GetParticipantBanks lists the banks an interbank transfer may target.
func (s *ParticipantBankService) GetParticipantBanks(ctx context.Context) ([]domain.ParticipantBank, error) {
	banks, err := s.participantBankRepo.GetAll(ctx)
	if err != nil {
		logger.Error("participant bank service get participant banks failed", err, nil)
		return nil, err
	}

	out := make([]domain.ParticipantBank, 0, len(banks))
	for _, bank := range banks {
		if strings.EqualFold(bank.BankCode, s.ownBankCode) {
			continue
		}
		out = append(out, bank)
	}

	logger.Info("participant bank service get participant banks success", logger.Fields{
		"count": len(out),
	})
	return out, nil
}

// Lookup returns the registry entry for code. Unknown codes produce a
// validation error that names the closest registered bank when one is close.
func (s *ParticipantBankService) Lookup(ctx context.Context, code string) (domain.ParticipantBank, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.ParticipantBank{}, domain.NewValidationError("bank code is required")
	}
	if code == s.ownBankCode {
		return domain.ParticipantBank{}, domain.NewValidationError(
			fmt.Sprintf("bank code %s is this bank; use an internal transfer", code),
		)
	}

	banks, err := s.GetParticipantBanks(ctx)
	if err != nil {
		return domain.ParticipantBank{}, err
	}

	for _, bank := range banks {
		if bank.BankCode == code {
			return bank, nil
		}
	}

	problem := fmt.Sprintf("bank code %s is not a participant bank", code)
	if suggestion, ok := suggestBank(banks, code); ok {
		return domain.ParticipantBank{}, domain.NewValidationError(
			problem,
			fmt.Sprintf("did you mean %s (%s)?", suggestion.BankCode, suggestion.BankName),
		)
	}
	return domain.ParticipantBank{}, domain.NewValidationError(problem)
}

// Suggest finds the registry entry whose code or name is closest to input.
func (s *ParticipantBankService) Suggest(ctx context.Context, input string) (domain.ParticipantBank, bool) {
	banks, err := s.GetParticipantBanks(ctx)
	if err != nil {
		return domain.ParticipantBank{}, false
	}
	return suggestBank(banks, strings.ToUpper(strings.TrimSpace(input)))
}

func suggestBank(banks []domain.ParticipantBank, input string) (domain.ParticipantBank, bool) {
	if input == "" {
		return domain.ParticipantBank{}, false
	}

	var best domain.ParticipantBank
	bestScore := 0.0
	for _, bank := range banks {
		score := max(similarity(input, bank.BankCode), similarity(input, strings.ToUpper(bank.BankName)))
		if score > bestScore {
			best, bestScore = bank, score
		}
	}

	if bestScore < minSuggestionSimilarity {
		return domain.ParticipantBank{}, false
	}
	return best, true
}

func similarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
