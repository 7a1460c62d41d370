package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexus-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockHeld is returned when another resolution session holds the lock
var ErrLockHeld = errors.New("lock already held")

// DistributedLock provides distributed locking using DynamoDB conditional
// writes. Each resolution session takes a lock on the owner+person key so
// concurrent requests do not duplicate fetch work.
type DistributedLock struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// lockRecord represents a lock record in DynamoDB
type lockRecord struct {
	PK         string `dynamodbav:"PK"` // LOCK#<key>
	SK         string `dynamodbav:"SK"` // LOCK
	LockID     string `dynamodbav:"LockID"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"` // Unix timestamp for DynamoDB TTL
}

// Acquire takes the lock for a key, failing fast when already held. The
// returned function releases the lock; releasing a lock that expired and
// was re-acquired by another session is a no-op.
func (dl *DistributedLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lockID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(ttl)

	record := lockRecord{
		PK:         fmt.Sprintf("LOCK#%s", key),
		SK:         "LOCK",
		LockID:     lockID,
		AcquiredAt: now.Format(time.RFC3339),
		ExpiresAt:  expiresAt.Format(time.RFC3339),
		TTL:        expiresAt.Unix(),
	}

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: record.PK},
		"SK":         &types.AttributeValueMemberS{Value: record.SK},
		"LockID":     &types.AttributeValueMemberS{Value: record.LockID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: record.AcquiredAt},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: record.ExpiresAt},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", record.TTL)},
	}

	// Conditional write: succeed only when no live lock exists
	input := &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	_, err := dl.client.PutItem(ctx, input)
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Failed to acquire lock - already held",
				zap.String("key", key),
			)
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("key", key),
		zap.String("lockID", lockID),
		zap.Duration("ttl", ttl),
	)

	release := func(ctx context.Context) error {
		return dl.release(ctx, key, lockID)
	}
	return release, nil
}

func (dl *DistributedLock) release(ctx context.Context, key, lockID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("LOCK#%s", key)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
		},
	}

	_, err := dl.client.DeleteItem(ctx, input)
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Warn("Lock already released or re-acquired by another session",
				zap.String("key", key),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}

	dl.logger.Debug("Lock released",
		zap.String("key", key),
		zap.String("lockID", lockID),
	)

	return nil
}
