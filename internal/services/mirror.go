package services

import (
	"context"
	"log/slog"
)

// publishMirror queues a mirror message, logging and swallowing failures.
// The local write already succeeded; the backlog scan retries the rest.
func publishMirror(ctx context.Context, publisher MirrorPublisher, entity, op, id string) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishMirror(ctx, entity, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror message",
			"entity", entity,
			"op", op,
			"id", id,
			"error", err)
	}
}
