package unity

import (
	"context"

	"github.com/hkaya/unity_mcp_bridge/internal/telemetry"
)

// InstrumentedSender wraps a CommandSender with telemetry.
type InstrumentedSender struct {
	sender    CommandSender
	telemetry *telemetry.Telemetry
}

// NewInstrumentedSender creates a new instrumented command sender.
func NewInstrumentedSender(sender CommandSender, tel *telemetry.Telemetry) *InstrumentedSender {
	return &InstrumentedSender{
		sender:    sender,
		telemetry: tel,
	}
}

// SendCommand sends a command with telemetry.
func (s *InstrumentedSender) SendCommand(ctx context.Context, name string, params map[string]any) (Response, error) {
	var result Response

	var err error

	instrumentedErr := s.telemetry.InstrumentCommand(ctx, name, func(ctx context.Context) error {
		result, err = s.sender.SendCommand(ctx, name, params)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}
