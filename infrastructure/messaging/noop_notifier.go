// Package messaging holds shared messaging adapters.
package messaging

import (
	"context"

	"nexus-backend/application/ports"

	"go.uber.org/zap"
)

// NoopNotifier discards progress updates. Used when no WebSocket
// endpoint is configured, such as local development.
type NoopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier creates a notifier that logs and drops updates.
func NewNoopNotifier(logger *zap.Logger) ports.Notifier {
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) NotifyProgress(_ context.Context, ownerID string, update ports.ProgressUpdate) error {
	n.logger.Debug("Progress update dropped, no notifier configured",
		zap.String("ownerId", ownerID),
		zap.String("platform", update.Platform),
		zap.String("status", update.Status),
	)
	return nil
}
