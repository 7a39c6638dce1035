package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/cortexlab/cortexlab/pkg/channels/gochannel"
	"github.com/cortexlab/cortexlab/pkg/eventbus"
)

// NewEventBus builds the in-process watermill event bus used for live run
// event fan-out.
func NewEventBus(logger *slog.Logger) (eventbus.EventBus, error) {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event channel: %w", err)
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}
