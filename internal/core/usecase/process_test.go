package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

type interactionStoreFake struct {
	recorded []domain.Interaction
	limit    int
	err      error
}

func (f *interactionStoreFake) Record(_ context.Context, in domain.Interaction) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, in)
	return nil
}

func (f *interactionStoreFake) ListRecent(_ context.Context, limit int) ([]domain.Interaction, error) {
	f.limit = limit
	return f.recorded, f.err
}

func validInteraction() domain.Interaction {
	return domain.Interaction{
		ID:          "i-1",
		Timestamp:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Query:       "bert",
		Mode:        domain.MethodHybrid,
		LatencySec:  0.12,
		EvidenceIDs: []string{"bert.pdf::p1"},
	}
}

func TestProcessInteractionPersists(t *testing.T) {
	store := &interactionStoreFake{}
	uc := NewProcessInteractionUseCase(store)

	if err := uc.Process(context.Background(), validInteraction()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.recorded) != 1 || store.recorded[0].ID != "i-1" {
		t.Fatalf("interaction not stored: %+v", store.recorded)
	}

	items, err := uc.Recent(context.Background(), 0)
	if err != nil || len(items) != 1 || store.limit != 20 {
		t.Fatalf("unexpected recent result: %v %v limit=%d", items, err, store.limit)
	}
}

func TestProcessInteractionRejectsInvalid(t *testing.T) {
	uc := NewProcessInteractionUseCase(&interactionStoreFake{})

	noID := validInteraction()
	noID.ID = ""
	badMode := validInteraction()
	badMode.Mode = "bm25"
	noTime := validInteraction()
	noTime.Timestamp = time.Time{}

	for _, in := range []domain.Interaction{noID, badMode, noTime} {
		if err := uc.Process(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestProcessInteractionStoreError(t *testing.T) {
	uc := NewProcessInteractionUseCase(&interactionStoreFake{err: errors.New("db down")})
	if err := uc.Process(context.Background(), validInteraction()); err == nil {
		t.Fatalf("expected store error")
	}
}
