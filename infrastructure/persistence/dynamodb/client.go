// Package dynamodb implements the persistence ports on a single DynamoDB
// table. Every collection hangs off GSI1: GSI1PK is the collection name and
// GSI1SK the store-level sort key, so predicate-filtered, sorted, limited
// fetches are one indexed query plus a filter expression.
package dynamodb

import (
	"context"
	"fmt"

	"mnemo-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Collection names used as GSI1 partition keys
const (
	collectionShortTerm     = "SHORT_TERM_MEMORY"
	collectionLongTerm      = "LONG_TERM_MEMORY"
	collectionEpisodic      = "EPISODIC_MEMORY"
	collectionNote          = "NOTE"
	collectionEntity        = "ENTITY"
	collectionRelationship  = "RELATIONSHIP"
	collectionCognitiveNode = "COGNITIVE_NODE"
)

const (
	skMetadata = "METADATA"
	gsi1Name   = "GSI1"
)

// Client bundles the DynamoDB connection shared by every repository
type Client struct {
	db        *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewClient creates the shared DynamoDB client wrapper
func NewClient(db *awsdynamodb.Client, tableName string, logger *zap.Logger) *Client {
	return &Client{
		db:        db,
		tableName: tableName,
		logger:    logger,
	}
}

func pk(collection, id string) string {
	return fmt.Sprintf("%s#%s", collection, id)
}

// termFilter builds a filter expression matching any term against any of
// the collection's searchable fields
func termFilter(terms, fields []string) expression.ConditionBuilder {
	var cond expression.ConditionBuilder
	first := true
	for _, field := range fields {
		for _, term := range terms {
			c := expression.Contains(expression.Name(field), term)
			if first {
				cond = c
				first = false
			} else {
				cond = cond.Or(c)
			}
		}
	}
	return cond
}

// queryCollection runs the store-level fetch contract against one
// collection: term predicate, GSI1SK sort direction, limit. An empty term
// list matches nothing and never reaches the store.
func (c *Client) queryCollection(ctx context.Context, collection string, q ports.MatchQuery, searchFields []string) ([]map[string]types.AttributeValue, error) {
	if len(q.Terms) == 0 {
		return nil, nil
	}

	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(collection))).
		WithFilter(termFilter(q.Terms, searchFields))

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue

	for {
		out, err := c.db.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(c.tableName),
			IndexName:                 aws.String(gsi1Name),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(!q.Descending),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, err
		}

		items = append(items, out.Items...)
		if q.Limit > 0 && len(items) >= q.Limit {
			items = items[:q.Limit]
			break
		}

		lastKey = out.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	c.logger.Debug("collection query completed",
		zap.String("collection", collection),
		zap.Int("terms", len(q.Terms)),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// queryAll pages through every item of one collection in GSI1SK order
func (c *Client) queryAll(ctx context.Context, collection string) ([]map[string]types.AttributeValue, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(collection)))

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue

	for {
		out, err := c.db.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(c.tableName),
			IndexName:                 aws.String(gsi1Name),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, err
		}

		items = append(items, out.Items...)
		lastKey = out.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	return items, nil
}

// putItem writes one marshalled item
func (c *Client) putItem(ctx context.Context, item map[string]types.AttributeValue) error {
	_, err := c.db.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	return err
}

// getItem reads one item by primary key; a nil map means not found
func (c *Client) getItem(ctx context.Context, pkValue string) (map[string]types.AttributeValue, error) {
	out, err := c.db.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkValue},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil || len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}
