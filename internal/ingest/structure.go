package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/provider"
)

// StructureBill asks the structurer for a bill and falls back to the
// heuristic parser when it declines or errors.
func StructureBill(ctx context.Context, s provider.Structurer, text string, log zerolog.Logger) (*model.Bill, error) {
	if s != nil {
		bill, err := s.StructureBill(ctx, text)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Msg("bill structuring failed, using fallback parser")
		case bill != nil:
			return bill, nil
		default:
			log.Warn().Msg("bill could not be structured, using fallback parser")
		}
	}

	bill := FallbackBill(text, log)
	if bill == nil {
		return nil, fmt.Errorf("%w: could not structure bill data", ErrStructuring)
	}
	return bill, nil
}

// StructurePolicy is StructureBill for the policy document.
func StructurePolicy(ctx context.Context, s provider.Structurer, text string, log zerolog.Logger) (*model.Policy, error) {
	if s != nil {
		policy, err := s.StructurePolicy(ctx, text)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Msg("policy structuring failed, using fallback parser")
		case policy != nil:
			return policy, nil
		default:
			log.Warn().Msg("policy could not be structured, using fallback parser")
		}
	}

	policy := FallbackPolicy(text)
	if policy == nil {
		return nil, fmt.Errorf("%w: could not structure policy data", ErrStructuring)
	}
	return policy, nil
}
