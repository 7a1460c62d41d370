package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/core/entities"
	"nexus-backend/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// GraphRepository implements the GraphRepository port using DynamoDB.
// Graphs use a single-table layout: one metadata item per graph under the
// owner's partition, plus one item per identity node under the graph's
// partition. GSI1 supports direct lookup by graph ID.
type GraphRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewGraphRepository creates a new GraphRepository
func NewGraphRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.GraphRepository {
	return &GraphRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// graphItem represents the DynamoDB item structure for graph metadata
type graphItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK,omitempty"` // For graph lookups by ID
	GSI1SK     string `dynamodbav:"GSI1SK,omitempty"` // Always "METADATA" for graphs
	EntityType string `dynamodbav:"EntityType"`
	GraphID    string `dynamodbav:"GraphID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	PersonName string `dynamodbav:"PersonName"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Version    int    `dynamodbav:"Version"`
}

// nodeItem represents the DynamoDB item structure for one identity node
type nodeItem struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	EntityType  string                 `dynamodbav:"EntityType"`
	GraphID     string                 `dynamodbav:"GraphID"`
	Platform    string                 `dynamodbav:"Platform"`
	Identifier  string                 `dynamodbav:"Identifier"`
	Profile     map[string]interface{} `dynamodbav:"Profile,omitempty"`
	CrossRefs   []crossRefItem         `dynamodbav:"CrossRefs,omitempty"`
	Activities  []activityItem         `dynamodbav:"Activities,omitempty"`
	FetchStatus string                 `dynamodbav:"FetchStatus"`
	FetchError  string                 `dynamodbav:"FetchError,omitempty"`
	FetchedAt   string                 `dynamodbav:"FetchedAt"`
	UpdatedAt   string                 `dynamodbav:"UpdatedAt"`
}

type crossRefItem struct {
	SourcePlatform string  `dynamodbav:"SourcePlatform"`
	TargetPlatform string  `dynamodbav:"TargetPlatform"`
	TargetHandle   string  `dynamodbav:"TargetHandle"`
	Confidence     float64 `dynamodbav:"Confidence"`
	DiscoveredAt   string  `dynamodbav:"DiscoveredAt"`
}

type activityItem struct {
	Platform   string            `dynamodbav:"Platform"`
	Kind       string            `dynamodbav:"Kind"`
	Content    string            `dynamodbav:"Content,omitempty"`
	URL        string            `dynamodbav:"URL,omitempty"`
	OccurredAt string            `dynamodbav:"OccurredAt"`
	Sentiment  string            `dynamodbav:"Sentiment,omitempty"`
	Metadata   map[string]string `dynamodbav:"Metadata,omitempty"`
}

// Save persists a graph and all its nodes to DynamoDB
func (r *GraphRepository) Save(ctx context.Context, graph *aggregates.IdentityGraph) error {
	nodes := graph.Nodes()

	r.logger.Info("Saving graph to DynamoDB",
		zap.String("graphID", graph.ID().String()),
		zap.String("ownerID", graph.OwnerID()),
		zap.Int("nodeCount", len(nodes)),
	)

	item := graphItem{
		PK:         fmt.Sprintf("USER#%s", graph.OwnerID()),
		SK:         fmt.Sprintf("GRAPH#%s", graph.ID().String()),
		GSI1PK:     fmt.Sprintf("GRAPHID#%s", graph.ID().String()),
		GSI1SK:     "METADATA",
		EntityType: "GRAPH",
		GraphID:    graph.ID().String(),
		OwnerID:    graph.OwnerID(),
		PersonName: graph.PersonName(),
		NodeCount:  len(nodes),
		CreatedAt:  graph.CreatedAt().Format(time.RFC3339),
		UpdatedAt:  graph.UpdatedAt().Format(time.RFC3339),
		Version:    1,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save graph to DynamoDB",
			zap.Error(err),
			zap.String("graphID", graph.ID().String()),
		)
		return fmt.Errorf("failed to save graph: %w", err)
	}

	// Save each node under the graph's partition. Continue on individual
	// failures so a single bad node does not lose the whole resolution.
	saved := 0
	for _, node := range nodes {
		if err := r.saveNode(ctx, graph.ID().String(), node); err != nil {
			r.logger.Error("Failed to save node",
				zap.Error(err),
				zap.String("graphID", graph.ID().String()),
				zap.String("nodeKey", node.Key().String()),
			)
			continue
		}
		saved++
	}

	r.logger.Info("Successfully saved graph to DynamoDB",
		zap.String("graphID", graph.ID().String()),
		zap.String("ownerID", graph.OwnerID()),
		zap.Int("nodesSaved", saved),
	)

	return nil
}

func (r *GraphRepository) saveNode(ctx context.Context, graphID string, node *entities.IdentityNode) error {
	item := nodeItem{
		PK:          fmt.Sprintf("GRAPH#%s", graphID),
		SK:          fmt.Sprintf("NODE#%s", node.Key().String()),
		EntityType:  "NODE",
		GraphID:     graphID,
		Platform:    node.Key().Platform().String(),
		Identifier:  node.Key().Identifier(),
		Profile:     node.Profile().Fields(),
		CrossRefs:   marshalCrossRefs(node.CrossReferences()),
		Activities:  marshalActivities(node.Activities()),
		FetchStatus: string(node.FetchStatus()),
		FetchError:  node.FetchError(),
		FetchedAt:   node.FetchedAt().Format(time.RFC3339),
		UpdatedAt:   node.UpdatedAt().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save node: %w", err)
	}

	return nil
}

// GetByID retrieves a graph with all its nodes by ID
func (r *GraphRepository) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.IdentityGraph, error) {
	// Use GSI1 for efficient lookup by GraphID
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPHID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, fmt.Errorf("graph not found: %s", id.String())
	}

	var item graphItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	nodes, err := r.loadNodes(ctx, item.GraphID)
	if err != nil {
		return nil, err
	}

	return r.reconstructGraph(item, nodes)
}

// loadNodes retrieves all node items under a graph's partition
func (r *GraphRepository) loadNodes(ctx context.Context, graphID string) ([]*entities.IdentityNode, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID)},
			":sk": &types.AttributeValueMemberS{Value: "NODE#"},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	nodes := make([]*entities.IdentityNode, 0, len(result.Items))
	for _, raw := range result.Items {
		var item nodeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal node item",
				zap.String("graphID", graphID),
				zap.Error(err),
			)
			continue
		}

		node, err := r.reconstructNode(item)
		if err != nil {
			r.logger.Warn("Failed to reconstruct node",
				zap.String("graphID", graphID),
				zap.String("SK", item.SK),
				zap.Error(err),
			)
			continue
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// GetByOwnerID retrieves all graphs for a user. Nodes are not loaded;
// callers listing graphs only need the metadata.
func (r *GraphRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.IdentityGraph, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", ownerID)},
			":sk": &types.AttributeValueMemberS{Value: "GRAPH#"},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}

	graphs := make([]*aggregates.IdentityGraph, 0, len(result.Items))
	for _, raw := range result.Items {
		var item graphItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal graph item", zap.Error(err))
			continue
		}

		graph, err := r.reconstructGraph(item, nil)
		if err != nil {
			r.logger.Warn("Failed to reconstruct graph from item",
				zap.String("graphID", item.GraphID),
				zap.Error(err))
			continue
		}
		graphs = append(graphs, graph)
	}

	return graphs, nil
}

// FindByPersonName retrieves the newest graph a user resolved for a person
func (r *GraphRepository) FindByPersonName(ctx context.Context, ownerID, personName string) (*aggregates.IdentityGraph, error) {
	graphs, err := r.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var matches []*aggregates.IdentityGraph
	for _, g := range graphs {
		if g.PersonName() == personName {
			matches = append(matches, g)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("graph not found for person: %s", personName)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt().After(matches[j].UpdatedAt())
	})

	// Reload with nodes attached
	return r.GetByID(ctx, matches[0].ID())
}

// Delete removes a graph and all its node items
func (r *GraphRepository) Delete(ctx context.Context, id aggregates.GraphID) error {
	// Get the graph metadata to find the owner
	graph, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get graph for deletion: %w", err)
	}

	// Delete node items first
	for _, node := range graph.Nodes() {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", id.String())},
				"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("NODE#%s", node.Key().String())},
			},
		}
		if _, err := r.client.DeleteItem(ctx, input); err != nil {
			r.logger.Warn("Failed to delete node item",
				zap.String("graphID", id.String()),
				zap.String("nodeKey", node.Key().String()),
				zap.Error(err),
			)
		}
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", graph.OwnerID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", id.String())},
		},
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}

	r.logger.Debug("Graph deleted",
		zap.String("graphID", id.String()),
		zap.String("ownerID", graph.OwnerID()),
	)

	return nil
}

func (r *GraphRepository) reconstructGraph(item graphItem, nodes []*entities.IdentityNode) (*aggregates.IdentityGraph, error) {
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt for graph %s: %w", item.GraphID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid UpdatedAt for graph %s: %w", item.GraphID, err)
	}

	return aggregates.ReconstructIdentityGraph(
		item.GraphID,
		item.OwnerID,
		item.PersonName,
		nodes,
		createdAt,
		updatedAt,
	)
}

func (r *GraphRepository) reconstructNode(item nodeItem) (*entities.IdentityNode, error) {
	key, err := valueobjects.NewNodeKey(valueobjects.Platform(item.Platform), item.Identifier)
	if err != nil {
		return nil, err
	}

	crossRefs := make([]valueobjects.CrossReference, 0, len(item.CrossRefs))
	for _, ref := range item.CrossRefs {
		discoveredAt, _ := time.Parse(time.RFC3339, ref.DiscoveredAt)
		parsed, err := valueobjects.NewCrossReference(
			valueobjects.Platform(ref.SourcePlatform),
			valueobjects.Platform(ref.TargetPlatform),
			ref.TargetHandle,
			ref.Confidence,
			discoveredAt,
		)
		if err != nil {
			r.logger.Warn("Skipping invalid cross reference",
				zap.String("SK", item.SK),
				zap.Error(err),
			)
			continue
		}
		crossRefs = append(crossRefs, parsed)
	}

	activities := make([]valueobjects.ActivityEvent, 0, len(item.Activities))
	for _, act := range item.Activities {
		occurredAt, err := time.Parse(time.RFC3339, act.OccurredAt)
		if err != nil {
			continue
		}
		parsed, err := valueobjects.NewActivityEvent(
			valueobjects.Platform(act.Platform),
			act.Kind,
			act.Content,
			act.URL,
			occurredAt,
			act.Metadata,
		)
		if err != nil {
			continue
		}
		if act.Sentiment != "" {
			parsed = parsed.WithSentiment(act.Sentiment)
		}
		activities = append(activities, parsed)
	}

	fetchedAt, _ := time.Parse(time.RFC3339, item.FetchedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructIdentityNode(
		key,
		valueobjects.NewProfileData(item.Profile),
		crossRefs,
		activities,
		entities.FetchStatus(item.FetchStatus),
		item.FetchError,
		fetchedAt,
		updatedAt,
	)
}

func marshalCrossRefs(refs []valueobjects.CrossReference) []crossRefItem {
	items := make([]crossRefItem, 0, len(refs))
	for _, ref := range refs {
		items = append(items, crossRefItem{
			SourcePlatform: ref.SourcePlatform().String(),
			TargetPlatform: ref.TargetPlatform().String(),
			TargetHandle:   ref.TargetHandle(),
			Confidence:     ref.Confidence(),
			DiscoveredAt:   ref.DiscoveredAt().Format(time.RFC3339),
		})
	}
	return items
}

func marshalActivities(activities []valueobjects.ActivityEvent) []activityItem {
	items := make([]activityItem, 0, len(activities))
	for _, act := range activities {
		items = append(items, activityItem{
			Platform:   act.Platform().String(),
			Kind:       act.Kind(),
			Content:    act.Content(),
			URL:        act.URL(),
			OccurredAt: act.OccurredAt().Format(time.RFC3339),
			Sentiment:  act.Sentiment(),
			Metadata:   act.Metadata(),
		})
	}
	return items
}
