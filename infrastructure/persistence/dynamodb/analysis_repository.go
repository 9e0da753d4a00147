package dynamodb

import (
	"context"

	"georegistry-backend/application/ports"
	"georegistry-backend/domain/property"
	apperrors "georegistry-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// AnalysisRepository reads the results the asynchronous geospatial
// pipeline writes to its own table, keyed by propertyId alone.
type AnalysisRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.AnalysisRepository {
	return &AnalysisRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type analysisItem struct {
	PropertyID string                 `dynamodbav:"propertyId"`
	Status     string                 `dynamodbav:"analysisStatus"`
	Result     map[string]interface{} `dynamodbav:"result"`
	UpdatedAt  string                 `dynamodbav:"updatedAt"`
}

// Get returns the stored analysis result. An absent item means the
// pipeline has not reported yet and defaults to pending.
func (r *AnalysisRepository) Get(ctx context.Context, propertyID string) (*ports.AnalysisResult, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			attrPropertyID: &types.AttributeValueMemberS{Value: propertyID},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get analysis", err)
	}
	if len(result.Item) == 0 {
		return &ports.AnalysisResult{
			PropertyID: propertyID,
			Status:     property.AnalysisStatusPending,
		}, nil
	}

	var item analysisItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		r.logger.Error("Failed to unmarshal analysis item",
			zap.String("propertyId", propertyID),
			zap.Error(err),
		)
		return nil, apperrors.NewDatabaseError("get analysis", err)
	}

	status := item.Status
	if status == "" {
		status = property.AnalysisStatusPending
	}
	return &ports.AnalysisResult{
		PropertyID: propertyID,
		Status:     status,
		Result:     item.Result,
		UpdatedAt:  item.UpdatedAt,
	}, nil
}
