package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/farellandr/donatrack/internal/events"
)

// publish never fails the request: the ledger row is already committed.
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, event events.LedgerEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.ErrorContext(ctx, "Error publishing ledger event", "type", event.Type, "error", fmt.Sprintf("%+v", err))
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
