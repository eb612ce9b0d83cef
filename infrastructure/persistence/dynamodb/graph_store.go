package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mnemo-backend/application/ports"
	"mnemo-backend/domain/cognitive"
	"mnemo-backend/domain/graph"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type entityItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	ID          string   `dynamodbav:"ID"`
	Name        string   `dynamodbav:"Name"`
	Type        string   `dynamodbav:"Type"`
	Description string   `dynamodbav:"Description,omitempty"`
	Aliases     []string `dynamodbav:"Aliases,omitempty"`
	Tags        []string `dynamodbav:"Tags,omitempty"`

	Confidence    float64   `dynamodbav:"Confidence"`
	Importance    float64   `dynamodbav:"Importance"`
	Mentions      int       `dynamodbav:"Mentions"`
	LastMentioned time.Time `dynamodbav:"LastMentioned"`
	IsValidated   bool      `dynamodbav:"IsValidated"`

	CognitiveNodeID    string    `dynamodbav:"CognitiveNodeID,omitempty"`
	CognitiveLayer     string    `dynamodbav:"CognitiveLayer,omitempty"`
	ConsolidationScore float64   `dynamodbav:"ConsolidationScore"`
	RelevanceScore     float64   `dynamodbav:"RelevanceScore"`
	LastSyncedAt       time.Time `dynamodbav:"LastSyncedAt,omitempty"`
	FusionConnections  []string  `dynamodbav:"FusionConnections,omitempty"`

	CreatedAt time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt"`
}

func entityFromItem(it entityItem) *graph.Entity {
	return &graph.Entity{
		ID:                 it.ID,
		Name:               it.Name,
		Type:               graph.EntityType(it.Type),
		Description:        it.Description,
		Aliases:            it.Aliases,
		Tags:               it.Tags,
		Confidence:         it.Confidence,
		Importance:         it.Importance,
		Mentions:           it.Mentions,
		LastMentioned:      it.LastMentioned,
		IsValidated:        it.IsValidated,
		CognitiveNodeID:    it.CognitiveNodeID,
		CognitiveLayer:     cognitive.LayerType(it.CognitiveLayer),
		ConsolidationScore: it.ConsolidationScore,
		RelevanceScore:     it.RelevanceScore,
		LastSyncedAt:       it.LastSyncedAt,
		FusionConnections:  it.FusionConnections,
		CreatedAt:          it.CreatedAt,
		UpdatedAt:          it.UpdatedAt,
	}
}

func entityToItem(e *graph.Entity) entityItem {
	return entityItem{
		PK:                 pk(collectionEntity, e.ID),
		SK:                 skMetadata,
		GSI1PK:             collectionEntity,
		GSI1SK:             sortKey(e.LastMentioned),
		ID:                 e.ID,
		Name:               e.Name,
		Type:               string(e.Type),
		Description:        e.Description,
		Aliases:            e.Aliases,
		Tags:               e.Tags,
		Confidence:         e.Confidence,
		Importance:         e.Importance,
		Mentions:           e.Mentions,
		LastMentioned:      e.LastMentioned,
		IsValidated:        e.IsValidated,
		CognitiveNodeID:    e.CognitiveNodeID,
		CognitiveLayer:     string(e.CognitiveLayer),
		ConsolidationScore: e.ConsolidationScore,
		RelevanceScore:     e.RelevanceScore,
		LastSyncedAt:       e.LastSyncedAt,
		FusionConnections:  e.FusionConnections,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

// EntityRepository persists graph entities in the shared table. GSI1SK holds
// the last-mention timestamp, so recency sorts come straight off the index
// and importance sorts re-order client side.
type EntityRepository struct {
	client *Client
}

func NewEntityRepository(client *Client) *EntityRepository {
	return &EntityRepository{client: client}
}

func (r *EntityRepository) Match(ctx context.Context, q ports.MatchQuery) ([]*graph.Entity, error) {
	storeQuery := q
	if q.SortBy == ports.SortByImportance {
		// fetch in index order, re-sort below
		storeQuery.Limit = 0
	}

	items, err := r.client.queryCollection(ctx, collectionEntity, storeQuery,
		[]string{"Name", "Description", "Aliases", "Tags"})
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("entities", err)
	}

	entities := make([]*graph.Entity, 0, len(items))
	for _, item := range items {
		var it entityItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("entities", err)
		}
		entities = append(entities, entityFromItem(it))
	}

	if q.SortBy == ports.SortByImportance {
		sort.SliceStable(entities, func(i, j int) bool {
			if q.Descending {
				return entities[i].Importance > entities[j].Importance
			}
			return entities[i].Importance < entities[j].Importance
		})
		if q.Limit > 0 && len(entities) > q.Limit {
			entities = entities[:q.Limit]
		}
	}
	return entities, nil
}

func (r *EntityRepository) GetByID(ctx context.Context, id string) (*graph.Entity, error) {
	item, err := r.client.getItem(ctx, pk(collectionEntity, id))
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("entities", err)
	}
	if item == nil {
		return nil, pkgerrors.NewEntityNotFound(id)
	}
	var it entityItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("entities", err)
	}
	return entityFromItem(it), nil
}

func (r *EntityRepository) All(ctx context.Context) ([]*graph.Entity, error) {
	items, err := r.client.queryAll(ctx, collectionEntity)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("entities", err)
	}
	entities := make([]*graph.Entity, 0, len(items))
	for _, item := range items {
		var it entityItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("entities", err)
		}
		entities = append(entities, entityFromItem(it))
	}
	return entities, nil
}

func (r *EntityRepository) Save(ctx context.Context, e *graph.Entity) error {
	item, err := attributevalue.MarshalMap(entityToItem(e))
	if err != nil {
		return pkgerrors.NewStorePersistFailed("entities", err)
	}
	if err := r.client.putItem(ctx, item); err != nil {
		return pkgerrors.NewStorePersistFailed("entities", err)
	}
	return nil
}

type relationshipItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	// PairKey is the two entity ids in lexical order, so the undirected
	// edge between two entities has exactly one lookup key
	PairKey string `dynamodbav:"PairKey"`

	ID          string    `dynamodbav:"ID"`
	SubjectID   string    `dynamodbav:"SubjectID"`
	Predicate   string    `dynamodbav:"Predicate"`
	ObjectID    string    `dynamodbav:"ObjectID"`
	Confidence  float64   `dynamodbav:"Confidence"`
	Importance  float64   `dynamodbav:"Importance"`
	Strength    float64   `dynamodbav:"Strength"`
	Mentions    int       `dynamodbav:"Mentions"`
	Context     string    `dynamodbav:"Context,omitempty"`
	Source      string    `dynamodbav:"Source,omitempty"`
	IsValidated bool      `dynamodbav:"IsValidated"`
	CreatedAt   time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time `dynamodbav:"UpdatedAt"`
}

func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return fmt.Sprintf("%s#%s", a, b)
}

func relationshipFromItem(it relationshipItem) *graph.Relationship {
	return &graph.Relationship{
		ID:          it.ID,
		SubjectID:   it.SubjectID,
		Predicate:   graph.PredicateType(it.Predicate),
		ObjectID:    it.ObjectID,
		Confidence:  it.Confidence,
		Importance:  it.Importance,
		Strength:    it.Strength,
		Mentions:    it.Mentions,
		Context:     it.Context,
		Source:      it.Source,
		IsValidated: it.IsValidated,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

// RelationshipRepository persists graph relationships in the shared table
type RelationshipRepository struct {
	client *Client
}

func NewRelationshipRepository(client *Client) *RelationshipRepository {
	return &RelationshipRepository{client: client}
}

func (r *RelationshipRepository) Match(ctx context.Context, q ports.MatchQuery) ([]*graph.Relationship, error) {
	items, err := r.client.queryCollection(ctx, collectionRelationship, q,
		[]string{"Predicate", "Context"})
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
	}
	rels := make([]*graph.Relationship, 0, len(items))
	for _, item := range items {
		var it relationshipItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
		}
		rels = append(rels, relationshipFromItem(it))
	}
	return rels, nil
}

// FindBetween returns the edge linking the two entities in either direction,
// or (nil, nil) when none exists
func (r *RelationshipRepository) FindBetween(ctx context.Context, entityA, entityB string) (*graph.Relationship, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(collectionRelationship))).
		WithFilter(expression.Equal(expression.Name("PairKey"), expression.Value(pairKey(entityA, entityB))))

	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
	}

	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.db.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(r.client.tableName),
			IndexName:                 aws.String(gsi1Name),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
		}
		if len(out.Items) > 0 {
			var it relationshipItem
			if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
				return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
			}
			return relationshipFromItem(it), nil
		}
		lastKey = out.LastEvaluatedKey
		if lastKey == nil {
			return nil, nil
		}
	}
}

func (r *RelationshipRepository) All(ctx context.Context) ([]*graph.Relationship, error) {
	items, err := r.client.queryAll(ctx, collectionRelationship)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
	}
	rels := make([]*graph.Relationship, 0, len(items))
	for _, item := range items {
		var it relationshipItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("relationships", err)
		}
		rels = append(rels, relationshipFromItem(it))
	}
	return rels, nil
}

func (r *RelationshipRepository) Save(ctx context.Context, rel *graph.Relationship) error {
	item, err := attributevalue.MarshalMap(relationshipItem{
		PK:          pk(collectionRelationship, rel.ID),
		SK:          skMetadata,
		GSI1PK:      collectionRelationship,
		GSI1SK:      sortKey(rel.UpdatedAt),
		PairKey:     pairKey(rel.SubjectID, rel.ObjectID),
		ID:          rel.ID,
		SubjectID:   rel.SubjectID,
		Predicate:   string(rel.Predicate),
		ObjectID:    rel.ObjectID,
		Confidence:  rel.Confidence,
		Importance:  rel.Importance,
		Strength:    rel.Strength,
		Mentions:    rel.Mentions,
		Context:     rel.Context,
		Source:      rel.Source,
		IsValidated: rel.IsValidated,
		CreatedAt:   rel.CreatedAt,
		UpdatedAt:   rel.UpdatedAt,
	})
	if err != nil {
		return pkgerrors.NewStorePersistFailed("relationships", err)
	}
	if err := r.client.putItem(ctx, item); err != nil {
		return pkgerrors.NewStorePersistFailed("relationships", err)
	}
	return nil
}
