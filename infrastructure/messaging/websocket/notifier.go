// Package websocket pushes resolution progress to connected clients
// through the API Gateway Management API.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nexus-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const userIndexName = "user-index"

// message is the envelope sent to WebSocket clients.
type message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Notifier implements ports.Notifier by posting progress updates to
// every active WebSocket connection a user holds. Connections are
// tracked in DynamoDB under PK=CONNECTION#<id>, indexed by user.
type Notifier struct {
	dynamoClient     *dynamodb.Client
	apiClient        *apigatewaymanagementapi.Client
	connectionsTable string
	logger           *zap.Logger
}

// NewNotifier creates a WebSocket notifier. The endpoint is the API
// Gateway WebSocket stage endpoint without scheme, for example
// "abc123.execute-api.us-east-1.amazonaws.com/prod".
func NewNotifier(
	awsCfg aws.Config,
	dynamoClient *dynamodb.Client,
	endpoint string,
	connectionsTable string,
	logger *zap.Logger,
) ports.Notifier {
	apiClient := apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})

	return &Notifier{
		dynamoClient:     dynamoClient,
		apiClient:        apiClient,
		connectionsTable: connectionsTable,
		logger:           logger,
	}
}

// NotifyProgress sends one progress update to all of the owner's
// connections. A user with no active connections is not an error.
func (n *Notifier) NotifyProgress(ctx context.Context, ownerID string, update ports.ProgressUpdate) error {
	connectionIDs, err := n.connectionsForUser(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(connectionIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(message{
		Type:      "resolution.progress",
		Timestamp: time.Now().Unix(),
		Data:      update,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal progress update: %w", err)
	}

	var failed int
	for _, connID := range connectionIDs {
		if err := n.post(ctx, connID, payload); err != nil {
			n.logger.Warn("Failed to deliver progress update",
				zap.String("connectionId", connID),
				zap.Error(err),
			)
			failed++
		}
	}

	if failed == len(connectionIDs) {
		return fmt.Errorf("failed to deliver progress update to all %d connections", failed)
	}

	return nil
}

// connectionsForUser queries the user index for active connection IDs.
func (n *Notifier) connectionsForUser(ctx context.Context, userID string) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(n.connectionsTable),
		IndexName:              aws.String(userIndexName),
		KeyConditionExpression: aws.String("GSI1PK = :userpk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userpk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
		},
	}

	result, err := n.dynamoClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	var connectionIDs []string
	for _, item := range result.Items {
		if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
			connectionIDs = append(connectionIDs, connID.Value)
		}
	}

	return connectionIDs, nil
}

// post delivers a payload to a single connection. Gone connections are
// removed from the table and not treated as delivery failures.
func (n *Notifier) post(ctx context.Context, connectionID string, payload []byte) error {
	_, err := n.apiClient.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err != nil {
		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			n.removeStaleConnection(ctx, connectionID)
			return nil
		}
		return fmt.Errorf("failed to post to connection: %w", err)
	}

	return nil
}

func (n *Notifier) removeStaleConnection(ctx context.Context, connectionID string) {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(n.connectionsTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}

	if _, err := n.dynamoClient.DeleteItem(ctx, input); err != nil {
		n.logger.Warn("Failed to remove stale connection",
			zap.String("connectionId", connectionID),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("Removed stale connection", zap.String("connectionId", connectionID))
}
