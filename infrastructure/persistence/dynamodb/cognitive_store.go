package dynamodb

import (
	"context"
	"errors"
	"time"

	"mnemo-backend/domain/cognitive"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cognitiveItem flattens all four node variants into one table shape.
// Layer decides which variant fields are meaningful on the way back out.
type cognitiveItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	ID           string    `dynamodbav:"ID"`
	Layer        string    `dynamodbav:"Layer"`
	Content      string    `dynamodbav:"Content"`
	Importance   float64   `dynamodbav:"Importance"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt"`
	LastAccessed time.Time `dynamodbav:"LastAccessed"`
	AccessCount  int       `dynamodbav:"AccessCount"`

	// veridical
	FactType     string `dynamodbav:"FactType,omitempty"`
	Verification string `dynamodbav:"Verification,omitempty"`
	SourceRef    string `dynamodbav:"SourceRef,omitempty"`

	// semantic
	ConceptType      string  `dynamodbav:"ConceptType,omitempty"`
	AbstractionLevel int     `dynamodbav:"AbstractionLevel,omitempty"`
	Confidence       float64 `dynamodbav:"Confidence,omitempty"`

	// episodic
	OccurredAt       time.Time `dynamodbav:"OccurredAt,omitempty"`
	ContextualCues   []string  `dynamodbav:"ContextualCues,omitempty"`
	EmotionalValence float64   `dynamodbav:"EmotionalValence,omitempty"`

	// fusion
	SourceNodeIDs []string `dynamodbav:"SourceNodeIDs,omitempty"`
	FusionType    string   `dynamodbav:"FusionType,omitempty"`
	Coherence     float64  `dynamodbav:"Coherence,omitempty"`
}

func nodeToItem(node cognitive.Node) cognitiveItem {
	base := node.Base()
	it := cognitiveItem{
		PK:           pk(collectionCognitiveNode, base.ID),
		SK:           skMetadata,
		GSI1PK:       collectionCognitiveNode,
		GSI1SK:       sortKey(base.CreatedAt),
		ID:           base.ID,
		Layer:        string(node.Layer()),
		Content:      base.Content,
		Importance:   base.Importance,
		CreatedAt:    base.CreatedAt,
		LastAccessed: base.LastAccessed,
		AccessCount:  base.AccessCount,
	}

	switch n := node.(type) {
	case *cognitive.VeridicalNode:
		it.FactType = n.FactType
		it.Verification = string(n.Verification)
		it.SourceRef = n.SourceRef
	case *cognitive.SemanticNode:
		it.ConceptType = string(n.ConceptType)
		it.AbstractionLevel = n.AbstractionLevel
		it.Confidence = n.Confidence
	case *cognitive.EpisodicNode:
		it.OccurredAt = n.OccurredAt
		it.ContextualCues = n.ContextualCues
		it.EmotionalValence = n.EmotionalValence
	case *cognitive.FusionNode:
		it.SourceNodeIDs = n.SourceNodeIDs
		it.FusionType = string(n.FusionType)
		it.Coherence = n.Coherence
	}
	return it
}

func nodeFromItem(it cognitiveItem) (cognitive.Node, error) {
	base := cognitive.BaseNode{
		ID:           it.ID,
		Content:      it.Content,
		Importance:   it.Importance,
		CreatedAt:    it.CreatedAt,
		LastAccessed: it.LastAccessed,
		AccessCount:  it.AccessCount,
	}

	switch cognitive.LayerType(it.Layer) {
	case cognitive.LayerVeridical:
		return &cognitive.VeridicalNode{
			BaseNode:     base,
			FactType:     it.FactType,
			Verification: cognitive.VerificationStatus(it.Verification),
			SourceRef:    it.SourceRef,
		}, nil
	case cognitive.LayerSemantic:
		return &cognitive.SemanticNode{
			BaseNode:         base,
			ConceptType:      cognitive.ConceptType(it.ConceptType),
			AbstractionLevel: it.AbstractionLevel,
			Confidence:       it.Confidence,
		}, nil
	case cognitive.LayerEpisodic:
		return &cognitive.EpisodicNode{
			BaseNode:         base,
			OccurredAt:       it.OccurredAt,
			ContextualCues:   it.ContextualCues,
			EmotionalValence: it.EmotionalValence,
		}, nil
	case cognitive.LayerFusion:
		return &cognitive.FusionNode{
			BaseNode:      base,
			SourceNodeIDs: it.SourceNodeIDs,
			FusionType:    cognitive.FusionType(it.FusionType),
			Coherence:     it.Coherence,
		}, nil
	default:
		return nil, pkgerrors.NewValidationError("unknown cognitive layer")
	}
}

// CognitiveNodeRepository persists the layered cognitive nodes in the
// shared table
type CognitiveNodeRepository struct {
	client *Client
}

func NewCognitiveNodeRepository(client *Client) *CognitiveNodeRepository {
	return &CognitiveNodeRepository{client: client}
}

// Insert writes a new node, failing on id collision
func (r *CognitiveNodeRepository) Insert(ctx context.Context, node cognitive.Node) error {
	item, err := attributevalue.MarshalMap(nodeToItem(node))
	if err != nil {
		return pkgerrors.NewStorePersistFailed("cognitive_nodes", err)
	}

	_, err = r.client.db.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.client.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewConflictError("cognitive node already exists")
		}
		return pkgerrors.NewStorePersistFailed("cognitive_nodes", err)
	}
	return nil
}

// Update rewrites an existing node, failing when it does not exist
func (r *CognitiveNodeRepository) Update(ctx context.Context, node cognitive.Node) error {
	item, err := attributevalue.MarshalMap(nodeToItem(node))
	if err != nil {
		return pkgerrors.NewStorePersistFailed("cognitive_nodes", err)
	}

	_, err = r.client.db.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.client.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewCognitiveNodeNotFound(node.Base().ID)
		}
		return pkgerrors.NewStorePersistFailed("cognitive_nodes", err)
	}
	return nil
}

// FindByID reads a node from the addressable layers. Fusion nodes are not
// reachable this way.
func (r *CognitiveNodeRepository) FindByID(ctx context.Context, nodeID string) (cognitive.Node, error) {
	item, err := r.client.getItem(ctx, pk(collectionCognitiveNode, nodeID))
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}
	if item == nil {
		return nil, pkgerrors.NewCognitiveNodeNotFound(nodeID)
	}

	var it cognitiveItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}
	if cognitive.LayerType(it.Layer) == cognitive.LayerFusion {
		return nil, pkgerrors.NewCognitiveNodeNotFound(nodeID)
	}
	return nodeFromItem(it)
}

// NodesByLayer lists every node of one layer in creation order
func (r *CognitiveNodeRepository) NodesByLayer(ctx context.Context, layer cognitive.LayerType) ([]cognitive.Node, error) {
	items, err := r.queryLayer(ctx, layer)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}

	nodes := make([]cognitive.Node, 0, len(items))
	for _, item := range items {
		var it cognitiveItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
		}
		node, err := nodeFromItem(it)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// FusionNodes lists every fusion node in creation order
func (r *CognitiveNodeRepository) FusionNodes(ctx context.Context) ([]*cognitive.FusionNode, error) {
	items, err := r.queryLayer(ctx, cognitive.LayerFusion)
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
	}

	nodes := make([]*cognitive.FusionNode, 0, len(items))
	for _, item := range items {
		var it cognitiveItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("cognitive_nodes", err)
		}
		node, err := nodeFromItem(it)
		if err != nil {
			return nil, err
		}
		fusion, ok := node.(*cognitive.FusionNode)
		if !ok {
			return nil, pkgerrors.NewValidationError("fusion layer item is not a fusion node")
		}
		nodes = append(nodes, fusion)
	}
	return nodes, nil
}

func (r *CognitiveNodeRepository) queryLayer(ctx context.Context, layer cognitive.LayerType) ([]map[string]types.AttributeValue, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(collectionCognitiveNode))).
		WithFilter(expression.Equal(expression.Name("Layer"), expression.Value(string(layer))))

	expr, err := builder.Build()
	if err != nil {
		return nil, err
	}

	var items []map[string]types.AttributeValue
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
