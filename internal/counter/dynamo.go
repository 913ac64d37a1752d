// Package counter provides the per-day issuance counter stores.
package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore backs the issuance counter with a DynamoDB table. Each calendar
// day owns one item; NextCounter performs an atomic ADD so concurrent issuers
// never observe the same value.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// NextCounter atomically increments and returns the counter for the given day
// key. The raw value grows without bound; the token protocol wraps it.
func (s *DynamoStore) NextCounter(ctx context.Context, dayKey string) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"day": &types.AttributeValueMemberS{Value: dayKey},
		},
		UpdateExpression: aws.String("ADD counter_value :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter for %s: %w", dayKey, err)
	}

	attr, ok := out.Attributes["counter_value"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter_value missing from update response for %s", dayKey)
	}
	n, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse counter value %q: %w", attr.Value, err)
	}
	return n, nil
}
