// Package main implements the WebSocket fan-out Lambda. It consumes
// domain events from EventBridge and pushes them to the WebSocket
// connections of the user who requested the work.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Global AWS clients for Lambda performance optimization
var dynamoClient *dynamodb.Client

// PushMessage is a message destined for a user's WebSocket connections
type PushMessage struct {
	EventType    string                 `json:"event_type"`
	TargetUserID string                 `json:"target_user_id"`
	Payload      map[string]interface{} `json:"payload"`
}

// WebSocketMessage is the envelope sent to clients
type WebSocketMessage struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func init() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	dynamoClient = dynamodb.NewFromConfig(cfg)

	log.Println("WebSocket send-message handler initialized")
}

func connectionsTable() string {
	if name := os.Getenv("CONNECTIONS_TABLE_NAME"); name != "" {
		return name
	}
	if name := os.Getenv("CONNECTIONS_TABLE"); name != "" {
		return name
	}
	return "nexus-connections"
}

// initializeAPIGatewayClient creates a management API client bound to
// the stage endpoint
func initializeAPIGatewayClient(endpoint string) *apigatewaymanagementapi.Client {
	cfg, _ := config.LoadDefaultConfig(context.Background())

	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// getConnectionsForUser retrieves active connections with their endpoints
func getConnectionsForUser(ctx context.Context, userID string) (map[string]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(connectionsTable()),
		IndexName:              aws.String("user-index"),
		KeyConditionExpression: aws.String("GSI1PK = :userpk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userpk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
		},
	}

	result, err := dynamoClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	connections := make(map[string]string)
	for _, item := range result.Items {
		connID, _ := item["ConnectionID"].(*types.AttributeValueMemberS)
		endpoint, _ := item["Endpoint"].(*types.AttributeValueMemberS)
		if connID == nil {
			continue
		}
		ep := os.Getenv("WEBSOCKET_ENDPOINT")
		if endpoint != nil && endpoint.Value != "" {
			ep = endpoint.Value
		}
		connections[connID.Value] = ep
	}

	return connections, nil
}

// sendMessageToConnection posts a payload to one connection
func sendMessageToConnection(ctx context.Context, apiClient *apigatewaymanagementapi.Client,
	connectionID string, message []byte) error {

	_, err := apiClient.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         message,
	})
	if err != nil {
		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			log.Printf("Connection %s is gone, removing", connectionID)
			removeStaleConnection(ctx, connectionID)
			return nil
		}
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// removeStaleConnection deletes a dead connection record
func removeStaleConnection(ctx context.Context, connectionID string) {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(connectionsTable()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}

	if _, err := dynamoClient.DeleteItem(ctx, input); err != nil {
		log.Printf("Failed to remove stale connection %s: %v", connectionID, err)
	}
}

// handlePush delivers one message to every connection the target user holds
func handlePush(ctx context.Context, msg PushMessage) error {
	if msg.TargetUserID == "" {
		log.Printf("Dropping %s event with no target user", msg.EventType)
		return nil
	}

	wsMessage := WebSocketMessage{
		Type:      msg.EventType,
		Timestamp: time.Now().Unix(),
		Data:      msg.Payload,
	}

	messageJSON, err := json.Marshal(wsMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	connections, err := getConnectionsForUser(ctx, msg.TargetUserID)
	if err != nil {
		return fmt.Errorf("failed to get user connections: %w", err)
	}
	if len(connections) == 0 {
		return nil
	}

	// Group connections by endpoint so each stage gets one client
	endpointGroups := make(map[string][]string)
	for connID, endpoint := range connections {
		endpointGroups[endpoint] = append(endpointGroups[endpoint], connID)
	}

	successCount := 0
	failCount := 0

	for endpoint, connectionIDs := range endpointGroups {
		apiClient := initializeAPIGatewayClient(endpoint)

		for _, connID := range connectionIDs {
			if err := sendMessageToConnection(ctx, apiClient, connID, messageJSON); err != nil {
				log.Printf("Failed to send to connection %s: %v", connID, err)
				failCount++
			} else {
				successCount++
			}
		}
	}

	log.Printf("Push complete: %d successful, %d failed", successCount, failCount)

	if failCount > 0 && successCount == 0 {
		return fmt.Errorf("all message sends failed")
	}

	return nil
}

// targetUserFor extracts the owning user from a domain event payload.
// Resolution events carry the requester; other events are addressed
// explicitly by the producer.
func targetUserFor(payload map[string]interface{}) string {
	if userID, ok := payload["requested_by"].(string); ok {
		return userID
	}
	if userID, ok := payload["user_id"].(string); ok {
		return userID
	}
	return ""
}

// handler accepts EventBridge domain events, direct push messages, and
// SQS batches of push messages
func handler(ctx context.Context, event json.RawMessage) error {
	var cloudWatchEvent events.CloudWatchEvent
	if err := json.Unmarshal(event, &cloudWatchEvent); err == nil && cloudWatchEvent.DetailType != "" {
		log.Printf("Processing domain event: %s", cloudWatchEvent.DetailType)

		var payload map[string]interface{}
		if err := json.Unmarshal(cloudWatchEvent.Detail, &payload); err != nil {
			return fmt.Errorf("failed to parse event detail: %w", err)
		}

		return handlePush(ctx, PushMessage{
			EventType:    cloudWatchEvent.DetailType,
			TargetUserID: targetUserFor(payload),
			Payload:      payload,
		})
	}

	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		for _, record := range sqsEvent.Records {
			var msg PushMessage
			if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
				log.Printf("Failed to parse SQS message: %v", err)
				continue
			}

			if err := handlePush(ctx, msg); err != nil {
				log.Printf("Failed to push message: %v", err)
			}
		}
		return nil
	}

	var pushMsg PushMessage
	if err := json.Unmarshal(event, &pushMsg); err == nil && pushMsg.EventType != "" {
		return handlePush(ctx, pushMsg)
	}

	return fmt.Errorf("unable to parse event")
}

func main() {
	lambda.Start(handler)
}
