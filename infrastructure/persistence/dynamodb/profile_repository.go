package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/versioning"
	"nexus-backend/infrastructure/persistence/schema"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// profileSchemaVersion is the format new profile records are written with
const profileSchemaVersion = 1

// ProfileRepository stores synthesized unified profiles in DynamoDB. The
// profile payload is stored as versioned JSON so the record format can
// evolve without rewriting existing rows.
type ProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	evolution *schema.Evolution
	logger    *zap.Logger
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		evolution: schema.NewEvolution(profileSchemaVersion),
		logger:    logger,
	}
}

// profileItem represents the DynamoDB item structure for a stored profile
type profileItem struct {
	PK         string `dynamodbav:"PK"` // GRAPH#<graph_id>
	SK         string `dynamodbav:"SK"` // PROFILE
	EntityType string `dynamodbav:"EntityType"`
	GraphID    string `dynamodbav:"GraphID"`
	Payload    []byte `dynamodbav:"Payload"`
	Checksum   string `dynamodbav:"Checksum"`
	Version    int    `dynamodbav:"Version"`
	StoredAt   string `dynamodbav:"StoredAt"`
}

// Save persists a synthesized profile for a graph. Re-synthesis of
// unchanged data is detected by checksum and skipped.
func (r *ProfileRepository) Save(ctx context.Context, graphID aggregates.GraphID, profile *aggregates.UnifiedProfile) error {
	payload, err := schema.MarshalVersioned(profile, profileSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	prev, err := r.currentVersion(ctx, graphID)
	if err != nil {
		r.logger.Warn("Failed to read stored profile version",
			zap.String("graphID", graphID.String()),
			zap.Error(err),
		)
	}

	next, changed, err := versioning.NextVersion(prev, graphID.String(), profile, "")
	if err != nil {
		return fmt.Errorf("failed to version profile: %w", err)
	}
	if !changed {
		r.logger.Debug("Profile unchanged, skipping write",
			zap.String("graphID", graphID.String()),
			zap.Int("version", next.Version),
		)
		return nil
	}

	item := profileItem{
		PK:         fmt.Sprintf("GRAPH#%s", graphID.String()),
		SK:         "PROFILE",
		EntityType: "PROFILE",
		GraphID:    graphID.String(),
		Payload:    payload,
		Checksum:   next.Checksum,
		Version:    next.Version,
		StoredAt:   time.Now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal profile item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save profile to DynamoDB",
			zap.Error(err),
			zap.String("graphID", graphID.String()),
		)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	r.logger.Debug("Profile saved",
		zap.String("graphID", graphID.String()),
	)

	return nil
}

// currentVersion reads the stored checksum and version for a graph's
// profile, or nil when none is stored yet.
func (r *ProfileRepository) currentVersion(ctx context.Context, graphID aggregates.GraphID) (*versioning.ProfileVersion, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID.String())},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
		ProjectionExpression: aws.String("#cs, #ver"),
		ExpressionAttributeNames: map[string]string{
			"#cs":  "Checksum",
			"#ver": "Version",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read profile version: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile version: %w", err)
	}
	if item.Checksum == "" {
		return nil, nil
	}

	return &versioning.ProfileVersion{
		GraphID:  graphID.String(),
		Version:  item.Version,
		Checksum: item.Checksum,
	}, nil
}

// GetByGraphID retrieves the stored profile for a graph
func (r *ProfileRepository) GetByGraphID(ctx context.Context, graphID aggregates.GraphID) (*aggregates.UnifiedProfile, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("GRAPH#%s", graphID.String()))).
		And(expression.Key("SK").Equal(expression.Value("PROFILE")))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, fmt.Errorf("profile not found for graph: %s", graphID.String())
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile item: %w", err)
	}

	raw, storedVersion, err := schema.UnmarshalVersioned(item.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile payload: %w", err)
	}

	raw, err = r.evolution.MigrateToCurrent(ctx, raw, storedVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate profile payload: %w", err)
	}

	var profile aggregates.UnifiedProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// Delete removes a stored profile
func (r *ProfileRepository) Delete(ctx context.Context, graphID aggregates.GraphID) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID.String())},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return nil
}
