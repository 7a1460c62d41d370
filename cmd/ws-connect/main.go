// Package main implements the WebSocket connection Lambda handler.
// It authenticates the client and records the connection so resolution
// progress can be pushed to it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"nexus-backend/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Global clients for Lambda performance optimization
var (
	dynamoClient *dynamodb.Client
	validator    *auth.JWTValidator
)

// Connection represents a WebSocket connection record
type Connection struct {
	ConnectionID string
	UserID       string
	ConnectedAt  time.Time
	Endpoint     string
	TTL          int64
}

func init() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient = dynamodb.NewFromConfig(cfg)

	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     os.Getenv("JWT_SECRET"),
		Issuer:        os.Getenv("JWT_ISSUER"),
	})
	if err != nil {
		log.Fatalf("Failed to create JWT validator: %v", err)
	}

	log.Println("WebSocket connect handler initialized")
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

// storeConnection saves the connection information to DynamoDB
func storeConnection(ctx context.Context, conn Connection) error {
	// Connections expire after 24 hours in case the disconnect
	// handler never fires.
	conn.TTL = time.Now().Add(24 * time.Hour).Unix()

	item := map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", conn.ConnectionID)},
		"SK":           &types.AttributeValueMemberS{Value: "METADATA"},
		"ConnectionID": &types.AttributeValueMemberS{Value: conn.ConnectionID},
		"UserID":       &types.AttributeValueMemberS{Value: conn.UserID},
		"GSI1PK":       &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", conn.UserID)},
		"GSI1SK":       &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", conn.ConnectionID)},
		"ConnectedAt":  &types.AttributeValueMemberS{Value: conn.ConnectedAt.Format(time.RFC3339)},
		"Endpoint":     &types.AttributeValueMemberS{Value: conn.Endpoint},
		"TTL":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", conn.TTL)},
	}

	_, err := dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(connectionsTable()),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	log.Printf("Stored connection %s for user %s", conn.ConnectionID, conn.UserID)
	return nil
}

// handler processes WebSocket connection requests
func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Printf("WebSocket connect request from connection: %s", request.RequestContext.ConnectionID)

	// Browsers cannot set headers on WebSocket upgrade, so the token
	// arrives in the query string; the header path covers other clients.
	token := request.QueryStringParameters["token"]
	if token == "" {
		token = strings.TrimPrefix(request.Headers["Authorization"], "Bearer ")
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		log.Printf("Authentication failed: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error": "unauthorized"}`,
		}, nil
	}

	connection := Connection{
		ConnectionID: request.RequestContext.ConnectionID,
		UserID:       claims.UserID,
		ConnectedAt:  time.Now(),
		Endpoint:     fmt.Sprintf("%s/%s", request.RequestContext.DomainName, request.RequestContext.Stage),
	}

	if err := storeConnection(ctx, connection); err != nil {
		log.Printf("Failed to store connection: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "internal server error"}`,
		}, nil
	}

	welcomeMsg := map[string]interface{}{
		"type":         "connection_established",
		"connectionId": connection.ConnectionID,
		"userId":       claims.UserID,
		"timestamp":    time.Now().Unix(),
	}
	welcomeJSON, _ := json.Marshal(welcomeMsg)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(welcomeJSON),
	}, nil
}

func main() {
	lambda.Start(handler)
}
