package dynamodb

import (
	"context"
	"fmt"
	"time"

	"nexus-backend/application/ports"

	"go.uber.org/zap"
)

// OutboxProcessor relays resolution events from the event store's outbox
// to the publisher. Events are written transactionally with the graph and
// published here afterwards, so a publish outage never loses an event.
type OutboxProcessor struct {
	eventStore     *DynamoDBEventStore
	eventPublisher ports.EventPublisher
	logger         *zap.Logger

	batchSize  int32
	interval   time.Duration
	maxRetries int

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor creates a relay with production defaults
func NewOutboxProcessor(
	eventStore *DynamoDBEventStore,
	eventPublisher ports.EventPublisher,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		eventStore:     eventStore,
		eventPublisher: eventPublisher,
		logger:         logger,
		batchSize:      50,
		interval:       5 * time.Second,
		maxRetries:     3,
		stopChan:       make(chan struct{}),
		stoppedChan:    make(chan struct{}),
	}
}

// Start launches the background relay loop
func (op *OutboxProcessor) Start(ctx context.Context) {
	op.logger.Info("starting outbox processor",
		zap.Int32("batch_size", op.batchSize),
		zap.Duration("interval", op.interval),
	)
	go op.relayLoop(ctx)
}

// Stop shuts the relay down and waits for the loop to exit
func (op *OutboxProcessor) Stop() {
	close(op.stopChan)
	<-op.stoppedChan
	op.logger.Info("outbox processor stopped")
}

func (op *OutboxProcessor) relayLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopChan:
			return
		case <-ticker.C:
			if err := op.relayBatch(ctx); err != nil {
				op.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

func (op *OutboxProcessor) relayBatch(ctx context.Context) error {
	pending, err := op.eventStore.GetPendingEvents(ctx, op.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	published := 0
	failed := 0
	for _, record := range pending {
		if err := op.relayEvent(ctx, record); err != nil {
			failed++
		} else {
			published++
		}
	}

	op.logger.Debug("outbox batch relayed",
		zap.Int("published", published),
		zap.Int("failed", failed),
	)
	return nil
}

func (op *OutboxProcessor) relayEvent(ctx context.Context, record *EventRecord) error {
	domainEvent, err := op.eventStore.recordToEvent(*record)
	if err != nil {
		// Malformed records will never publish; fail them immediately
		return op.markFailed(ctx, record, fmt.Sprintf("failed to convert to domain event: %v", err))
	}

	if err := op.eventPublisher.Publish(ctx, domainEvent); err != nil {
		return op.markFailed(ctx, record, fmt.Sprintf("publish failed: %v", err))
	}

	if err := op.eventStore.MarkEventAsPublished(ctx, record.PK, record.SK); err != nil {
		op.logger.Error("failed to mark event as published",
			zap.String("event_id", record.EventID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (op *OutboxProcessor) markFailed(ctx context.Context, record *EventRecord, errorMsg string) error {
	attempts := record.PublishAttempts + 1

	if err := op.eventStore.MarkEventAsFailed(ctx, record.PK, record.SK, errorMsg, attempts); err != nil {
		op.logger.Error("failed to mark event as failed",
			zap.String("event_id", record.EventID),
			zap.Error(err),
		)
		return err
	}

	if attempts >= op.maxRetries {
		op.logger.Warn("event permanently failed",
			zap.String("event_id", record.EventID),
			zap.String("event_type", record.EventType),
			zap.Int("attempts", attempts),
			zap.String("error", errorMsg),
		)
	}
	return fmt.Errorf("event processing failed: %s", errorMsg)
}
