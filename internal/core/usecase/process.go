package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

// ProcessInteractionUseCase archives interaction events consumed by the worker.
type ProcessInteractionUseCase struct {
	store ports.InteractionStore
}

func NewProcessInteractionUseCase(store ports.InteractionStore) *ProcessInteractionUseCase {
	return &ProcessInteractionUseCase{store: store}
}

func (uc *ProcessInteractionUseCase) Process(ctx context.Context, interaction domain.Interaction) error {
	if err := validateInteraction(interaction); err != nil {
		return err
	}
	if err := uc.store.Record(ctx, interaction); err != nil {
		return fmt.Errorf("persist interaction: %w", err)
	}
	return nil
}

func (uc *ProcessInteractionUseCase) Recent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	if limit <= 0 {
		limit = 20
	}
	items, err := uc.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return items, nil
}

func validateInteraction(in domain.Interaction) error {
	if strings.TrimSpace(in.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate interaction", errors.New("interaction id is required"))
	}
	if in.Timestamp.IsZero() {
		return domain.WrapError(domain.ErrInvalidInput, "validate interaction", errors.New("interaction timestamp is required"))
	}
	if _, err := domain.ParseMethod(string(in.Mode)); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate interaction", err)
	}
	if in.LatencySec < 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate interaction", fmt.Errorf("negative latency %v", in.LatencySec))
	}
	return nil
}
