package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diaspora-journey-api/internal/domain"
)

// SecurityEventRepo is the append-only security events table.
type SecurityEventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSecurityEventRepo(client *dynamodb.Client, tableName string) *SecurityEventRepo {
	return &SecurityEventRepo{client: client, tableName: tableName}
}

func (r *SecurityEventRepo) Put(ctx context.Context, e *domain.SecurityEvent) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// List returns one page of events, newest first when filtered by type or
// user (GSI query); unfiltered listings scan in table order.
func (r *SecurityEventRepo) List(ctx context.Context, f domain.SecurityEventFilter) ([]domain.SecurityEvent, string, error) {
	start, err := decodeCursor(f.Cursor)
	if err != nil {
		return nil, "", err
	}
	var items []map[string]types.AttributeValue
	var last map[string]types.AttributeValue
	if in := eventQuery(r.tableName, f, start); in != nil {
		var out *dynamodb.QueryOutput
		out, err = r.client.Query(ctx, in)
		if err == nil {
			items, last = out.Items, out.LastEvaluatedKey
		}
	} else {
		var out *dynamodb.ScanOutput
		out, err = r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			Limit:             aws.Int32(int32(f.Limit)),
			ExclusiveStartKey: start,
		})
		if err == nil {
			items, last = out.Items, out.LastEvaluatedKey
		}
	}
	if err != nil {
		return nil, "", err
	}
	events := []domain.SecurityEvent{}
	if err := attributevalue.UnmarshalListOfMaps(items, &events); err != nil {
		return nil, "", err
	}
	next, err := encodeCursor(last)
	if err != nil {
		return nil, "", err
	}
	return events, next, nil
}

// eventQuery picks the index for f. A type filter queries the type index and
// narrows by user with a FilterExpression; nil means scan.
func eventQuery(table string, f domain.SecurityEventFilter, start map[string]types.AttributeValue) *dynamodb.QueryInput {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{},
		ExpressionAttributeValues: map[string]types.AttributeValue{},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(f.Limit)),
		ExclusiveStartKey:         start,
	}
	switch {
	case f.Type != "":
		in.IndexName = aws.String(indexEventTypeCreatedAt)
		in.ExpressionAttributeNames["#a"] = "event_type"
		in.ExpressionAttributeValues[":v"] = &types.AttributeValueMemberS{Value: f.Type}
		if f.UserID != "" {
			in.FilterExpression = aws.String("#u = :u")
			in.ExpressionAttributeNames["#u"] = "user_id"
			in.ExpressionAttributeValues[":u"] = &types.AttributeValueMemberS{Value: f.UserID}
		}
	case f.UserID != "":
		in.IndexName = aws.String(indexUserCreated)
		in.ExpressionAttributeNames["#a"] = "user_id"
		in.ExpressionAttributeValues[":v"] = &types.AttributeValueMemberS{Value: f.UserID}
	default:
		return nil
	}
	return in
}
