package dynamodb

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// lastEvaluatedKey is the serializable form of the composite key a
// query stopped at. Both attributes are strings, so the opaque token
// is a base64 JSON of the two values.
type lastEvaluatedKey struct {
	UserID     string `json:"userId"`
	PropertyID string `json:"propertyId"`
}

// encodeLastKey turns DynamoDB's LastEvaluatedKey into an opaque
// continuation token. Returns "" when there is no further page.
func encodeLastKey(key map[string]types.AttributeValue) string {
	if key == nil {
		return ""
	}
	lek := lastEvaluatedKey{}
	if v, ok := key[attrUserID].(*types.AttributeValueMemberS); ok {
		lek.UserID = v.Value
	}
	if v, ok := key[attrPropertyID].(*types.AttributeValueMemberS); ok {
		lek.PropertyID = v.Value
	}
	data, err := json.Marshal(lek)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// decodeLastKey decodes a continuation token back into an exclusive
// start key.
func decodeLastKey(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var lek lastEvaluatedKey
	if err := json.Unmarshal(data, &lek); err != nil {
		return nil, err
	}
	if lek.UserID == "" || lek.PropertyID == "" {
		return nil, errInvalidToken
	}
	return map[string]types.AttributeValue{
		attrUserID:     &types.AttributeValueMemberS{Value: lek.UserID},
		attrPropertyID: &types.AttributeValueMemberS{Value: lek.PropertyID},
	}, nil
}
