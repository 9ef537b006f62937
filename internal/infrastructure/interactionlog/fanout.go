// Package interactionlog fans interaction records out to several sinks.
package interactionlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

type namedSink struct {
	name string
	sink ports.InteractionLogger
}

// FanOut records to every sink, even when an earlier one fails.
type FanOut struct {
	sinks []namedSink
}

func NewFanOut() *FanOut {
	return &FanOut{}
}

// Add registers sink under name; nil sinks are ignored.
func (f *FanOut) Add(name string, sink ports.InteractionLogger) *FanOut {
	if sink != nil {
		f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	}
	return f
}

func (f *FanOut) Len() int { return len(f.sinks) }

func (f *FanOut) Record(ctx context.Context, interaction domain.Interaction) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.sink.Record(ctx, interaction); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
