package nats

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const eventVersion = 1

type interactionEvent struct {
	Version     int                `json:"version"`
	Interaction domain.Interaction `json:"interaction"`
}

func EncodeInteraction(in domain.Interaction) ([]byte, error) {
	payload, err := json.Marshal(interactionEvent{Version: eventVersion, Interaction: in})
	if err != nil {
		return nil, fmt.Errorf("encode interaction event: %w", err)
	}
	return payload, nil
}

func DecodeInteraction(data []byte) (domain.Interaction, error) {
	var ev interactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return domain.Interaction{}, domain.WrapError(domain.ErrInvalidInput, "decode interaction event", err)
	}
	if ev.Version != eventVersion {
		return domain.Interaction{}, domain.WrapError(domain.ErrInvalidInput, "decode interaction event",
			fmt.Errorf("unsupported event version %d", ev.Version))
	}
	if ev.Interaction.ID == "" {
		return domain.Interaction{}, domain.WrapError(domain.ErrInvalidInput, "decode interaction event",
			errors.New("missing interaction id"))
	}
	return ev.Interaction, nil
}
