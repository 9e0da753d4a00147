// Package dynamodb implements the persistence ports on DynamoDB.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"georegistry-backend/application/ports"
	"georegistry-backend/domain/property"
	apperrors "georegistry-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Item attribute names. "name" and "type" are reserved words in
// DynamoDB expressions and always go through attribute-name
// placeholders.
const (
	attrUserID         = "userId"
	attrPropertyID     = "propertyId"
	attrName           = "name"
	attrType           = "type"
	attrDescription    = "description"
	attrArea           = "area"
	attrPerimeter      = "perimeter"
	attrCoordinates    = "coordinates"
	attrAnalysisStatus = "analysisStatus"
	attrCreatedAt      = "createdAt"
	attrUpdatedAt      = "updatedAt"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 100
	batchWriteSize    = 25
)

var errInvalidToken = errors.New("invalid pagination token")

// PropertyRepository implements ports.PropertyRepository on a single
// DynamoDB table with composite key (userId, propertyId).
type PropertyRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewPropertyRepository creates a new PropertyRepository.
func NewPropertyRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.PropertyRepository {
	return &PropertyRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Put unconditionally upserts a property.
func (r *PropertyRepository) Put(ctx context.Context, p *property.Property) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      propertyToItem(p),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save property",
			zap.Error(err),
			zap.String("propertyId", p.ID),
		)
		return apperrors.NewDatabaseError("put property", err)
	}

	r.logger.Info("Property saved",
		zap.String("propertyId", p.ID),
		zap.String("ownerId", truncateID(p.OwnerID)),
	)
	return nil
}

// Get performs an owner-scoped point lookup. Absence is not an error;
// it is reported as a nil property.
func (r *PropertyRepository) Get(ctx context.Context, ownerID, propertyID string) (*property.Property, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       propertyKey(ownerID, propertyID),
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get property", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}

	p, err := itemToProperty(result.Item)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get property", err)
	}
	return p, nil
}

// Query returns one page of the owner's properties, newest first.
// Limits outside [1, 100] silently reset to 50. A malformed
// continuation token is ignored with a warning and the scan restarts
// from the beginning. The type filter applies to the fetched page, so
// a filtered page may hold fewer than limit items while more matches
// remain behind the token.
func (r *PropertyRepository) Query(ctx context.Context, q ports.PropertyQuery) (*ports.PropertyPage, error) {
	limit := q.Limit
	if limit < 1 || limit > maxQueryLimit {
		limit = defaultQueryLimit
	}

	keyCond := expression.Key(attrUserID).Equal(expression.Value(q.OwnerID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("query properties", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
		ScanIndexForward:          aws.Bool(false), // newest first
	}

	if q.LastKey != "" {
		startKey, err := decodeLastKey(q.LastKey)
		if err != nil {
			r.logger.Warn("Ignoring malformed pagination token",
				zap.String("lastKey", q.LastKey),
				zap.Error(err),
			)
		} else {
			input.ExclusiveStartKey = startKey
		}
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, apperrors.NewDatabaseError("query properties", err)
	}

	items := make([]*property.Property, 0, len(result.Items))
	for _, item := range result.Items {
		p, err := itemToProperty(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable property item", zap.Error(err))
			continue
		}
		if q.Type != "" && string(p.Type) != q.Type {
			continue
		}
		items = append(items, p)
	}

	return &ports.PropertyPage{
		Items:   items,
		LastKey: encodeLastKey(result.LastEvaluatedKey),
	}, nil
}

// Update applies only the present fields through a single UpdateItem,
// always refreshing updatedAt, and returns the merged record. The
// existence condition makes a missing key fail as not-found instead of
// writing a partial record.
func (r *PropertyRepository) Update(ctx context.Context, ownerID, propertyID string, u property.Update) (*property.Property, error) {
	setParts := []string{"#updatedAt = :updatedAt"}
	names := map[string]string{
		"#updatedAt": attrUpdatedAt,
		"#userId":    attrUserID,
		"#propId":    attrPropertyID,
	}
	values := map[string]types.AttributeValue{
		":updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}

	if u.Name != nil {
		setParts = append(setParts, "#name = :name")
		names["#name"] = attrName
		values[":name"] = &types.AttributeValueMemberS{Value: *u.Name}
	}
	if u.Type != nil {
		setParts = append(setParts, "#type = :type")
		names["#type"] = attrType
		values[":type"] = &types.AttributeValueMemberS{Value: string(*u.Type)}
	}
	if u.Description != nil {
		setParts = append(setParts, "#description = :description")
		names["#description"] = attrDescription
		values[":description"] = &types.AttributeValueMemberS{Value: *u.Description}
	}
	if u.Area != nil {
		setParts = append(setParts, "#area = :area")
		names["#area"] = attrArea
		values[":area"] = &types.AttributeValueMemberN{Value: u.Area.String()}
	}
	if u.Perimeter != nil {
		setParts = append(setParts, "#perimeter = :perimeter")
		names["#perimeter"] = attrPerimeter
		values[":perimeter"] = &types.AttributeValueMemberN{Value: u.Perimeter.String()}
	}
	if u.Coordinates != nil {
		setParts = append(setParts, "#coordinates = :coordinates")
		names["#coordinates"] = attrCoordinates
		values[":coordinates"] = coordinatesToAttribute(u.Coordinates)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       propertyKey(ownerID, propertyID),
		UpdateExpression:          aws.String("SET " + strings.Join(setParts, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#userId) AND attribute_exists(#propId)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}

	result, err := r.client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, apperrors.NewNotFoundError("property")
		}
		r.logger.Error("Failed to update property",
			zap.Error(err),
			zap.String("propertyId", propertyID),
		)
		return nil, apperrors.NewDatabaseError("update property", err)
	}

	merged, err := itemToProperty(result.Attributes)
	if err != nil {
		return nil, apperrors.NewDatabaseError("update property", err)
	}
	return merged, nil
}

// Delete removes the property with an existence-conditioned atomic
// delete. A conditional-check miss is reported as not-found,
// distinctly from infrastructure errors.
func (r *PropertyRepository) Delete(ctx context.Context, ownerID, propertyID string) error {
	cond := expression.AttributeExists(expression.Name(attrUserID)).
		And(expression.AttributeExists(expression.Name(attrPropertyID)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("delete property", err)
	}

	input := &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       propertyKey(ownerID, propertyID),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			r.logger.Warn("Delete of non-existent property",
				zap.String("propertyId", propertyID),
			)
			return apperrors.NewNotFoundError("property")
		}
		r.logger.Error("Failed to delete property",
			zap.Error(err),
			zap.String("propertyId", propertyID),
		)
		return apperrors.NewDatabaseError("delete property", err)
	}

	r.logger.Info("Property deleted",
		zap.String("propertyId", propertyID),
		zap.String("ownerId", truncateID(ownerID)),
	)
	return nil
}

// BatchPut writes properties in BatchWriteItem chunks. When a chunk
// fails or leaves unprocessed items, the affected items are retried
// individually and counted per item instead of failing the whole
// batch.
func (r *PropertyRepository) BatchPut(ctx context.Context, properties []*property.Property) (ports.BatchResult, error) {
	var result ports.BatchResult

	for start := 0; start < len(properties); start += batchWriteSize {
		end := start + batchWriteSize
		if end > len(properties) {
			end = len(properties)
		}
		chunk := properties[start:end]

		writes := make([]types.WriteRequest, 0, len(chunk))
		for _, p := range chunk {
			writes = append(writes, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: propertyToItem(p)},
			})
		}

		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: writes},
		})
		if err != nil {
			r.logger.Warn("Batch write failed, retrying items individually",
				zap.Int("items", len(chunk)),
				zap.Error(err),
			)
			succeeded, failed := r.putIndividually(ctx, chunk)
			result.Succeeded += succeeded
			result.Failed += failed
			continue
		}

		unprocessed := out.UnprocessedItems[r.tableName]
		result.Succeeded += len(chunk) - len(unprocessed)
		if len(unprocessed) > 0 {
			retry := itemsFromWriteRequests(unprocessed)
			succeeded, failed := r.retryItems(ctx, retry)
			result.Succeeded += succeeded
			result.Failed += failed
		}
	}

	return result, nil
}

func (r *PropertyRepository) putIndividually(ctx context.Context, properties []*property.Property) (succeeded, failed int) {
	for _, p := range properties {
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      propertyToItem(p),
		}); err != nil {
			r.logger.Error("Individual put failed",
				zap.String("propertyId", p.ID),
				zap.Error(err),
			)
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

func (r *PropertyRepository) retryItems(ctx context.Context, items []map[string]types.AttributeValue) (succeeded, failed int) {
	for _, item := range items {
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      item,
		}); err != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

func itemsFromWriteRequests(writes []types.WriteRequest) []map[string]types.AttributeValue {
	items := make([]map[string]types.AttributeValue, 0, len(writes))
	for _, w := range writes {
		if w.PutRequest != nil {
			items = append(items, w.PutRequest.Item)
		}
	}
	return items
}

// Item conversion. Numeric attributes are written as DynamoDB numbers
// from the exact decimal string, never through float64.

func propertyKey(ownerID, propertyID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrUserID:     &types.AttributeValueMemberS{Value: ownerID},
		attrPropertyID: &types.AttributeValueMemberS{Value: propertyID},
	}
}

func propertyToItem(p *property.Property) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrUserID:         &types.AttributeValueMemberS{Value: p.OwnerID},
		attrPropertyID:     &types.AttributeValueMemberS{Value: p.ID},
		attrName:           &types.AttributeValueMemberS{Value: p.Name},
		attrType:           &types.AttributeValueMemberS{Value: string(p.Type)},
		attrDescription:    &types.AttributeValueMemberS{Value: p.Description},
		attrArea:           &types.AttributeValueMemberN{Value: p.Area.String()},
		attrPerimeter:      &types.AttributeValueMemberN{Value: p.Perimeter.String()},
		attrCoordinates:    coordinatesToAttribute(p.Coordinates),
		attrAnalysisStatus: &types.AttributeValueMemberS{Value: p.AnalysisStatus},
		attrCreatedAt:      &types.AttributeValueMemberS{Value: p.CreatedAt.UTC().Format(time.RFC3339)},
		attrUpdatedAt:      &types.AttributeValueMemberS{Value: p.UpdatedAt.UTC().Format(time.RFC3339)},
	}
}

func coordinatesToAttribute(coords []property.Coordinate) types.AttributeValue {
	points := make([]types.AttributeValue, 0, len(coords))
	for _, c := range coords {
		points = append(points, &types.AttributeValueMemberL{
			Value: []types.AttributeValue{
				&types.AttributeValueMemberN{Value: c.Lon().String()},
				&types.AttributeValueMemberN{Value: c.Lat().String()},
			},
		})
	}
	return &types.AttributeValueMemberL{Value: points}
}

func itemToProperty(item map[string]types.AttributeValue) (*property.Property, error) {
	p := &property.Property{
		OwnerID:        stringAttr(item, attrUserID),
		ID:             stringAttr(item, attrPropertyID),
		Name:           stringAttr(item, attrName),
		Type:           property.Type(stringAttr(item, attrType)),
		Description:    stringAttr(item, attrDescription),
		AnalysisStatus: stringAttr(item, attrAnalysisStatus),
	}
	if p.AnalysisStatus == "" {
		// earlier records predate the analysis pipeline
		p.AnalysisStatus = property.AnalysisStatusPending
	}

	area, err := numberAttr(item, attrArea)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attrArea, err)
	}
	p.Area = area

	perimeter, err := numberAttr(item, attrPerimeter)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attrPerimeter, err)
	}
	p.Perimeter = perimeter

	coords, err := coordinatesFromAttribute(item[attrCoordinates])
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attrCoordinates, err)
	}
	p.Coordinates = coords

	createdAt, err := time.Parse(time.RFC3339, stringAttr(item, attrCreatedAt))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attrCreatedAt, err)
	}
	p.CreatedAt = createdAt

	updatedAt, err := time.Parse(time.RFC3339, stringAttr(item, attrUpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attrUpdatedAt, err)
	}
	p.UpdatedAt = updatedAt

	return p, nil
}

func coordinatesFromAttribute(attr types.AttributeValue) ([]property.Coordinate, error) {
	list, ok := attr.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("not a list")
	}
	coords := make([]property.Coordinate, 0, len(list.Value))
	for i, pt := range list.Value {
		pair, ok := pt.(*types.AttributeValueMemberL)
		if !ok || len(pair.Value) != 2 {
			return nil, fmt.Errorf("point %d is not a pair", i)
		}
		var c property.Coordinate
		for j, comp := range pair.Value {
			n, ok := comp.(*types.AttributeValueMemberN)
			if !ok {
				return nil, fmt.Errorf("point %d component %d is not a number", i, j)
			}
			d, err := decimal.NewFromString(n.Value)
			if err != nil {
				return nil, fmt.Errorf("point %d component %d: %w", i, j, err)
			}
			c[j] = d
		}
		coords = append(coords, c)
	}
	return coords, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func numberAttr(item map[string]types.AttributeValue, name string) (decimal.Decimal, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("not a number")
	}
	return decimal.NewFromString(v.Value)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
