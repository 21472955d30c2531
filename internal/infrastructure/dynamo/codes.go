package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diaspora-journey-api/internal/domain"
)

// CodeRepo manages password-recovery OTPs and email confirmation tokens.
// PK: user_id, SK: purpose ("otp" | "email")
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Put(ctx context.Context, c *domain.OneTimeCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal one-time code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CodeRepo) Get(ctx context.Context, userID, purpose string) (*domain.OneTimeCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey("user_id", userID, "purpose", purpose),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("code not found: %w", domain.ErrNotFound)
	}
	var c domain.OneTimeCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CodeRepo) Delete(ctx context.Context, userID, purpose string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "purpose", purpose),
	})
	return err
}

// RecordFailure adds one to the code's attempt counter and returns the new
// count. A code that no longer exists yields ErrNotFound.
func (r *CodeRepo) RecordFailure(ctx context.Context, userID, purpose string) (int, error) {
	out, err := r.client.UpdateItem(ctx, recordFailureInput(r.tableName, userID, purpose))
	if isConditionFailed(err) {
		return 0, fmt.Errorf("code not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	var c domain.OneTimeCode
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return 0, err
	}
	return c.Attempts, nil
}

// Consume deletes the code only while it still holds code and has attempts
// left, so at most one caller can redeem it.
func (r *CodeRepo) Consume(ctx context.Context, userID, purpose, code string) error {
	_, err := r.client.DeleteItem(ctx, consumeInput(r.tableName, userID, purpose, code))
	if isConditionFailed(err) {
		return fmt.Errorf("code already used: %w", domain.ErrConflict)
	}
	return err
}

func recordFailureInput(table, userID, purpose string) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       compositeKey("user_id", userID, "purpose", purpose),
		UpdateExpression:          aws.String("ADD #n :one"),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  map[string]string{"#n": "attempts"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	}
}

func consumeInput(table, userID, purpose, code string) *dynamodb.DeleteItemInput {
	return &dynamodb.DeleteItemInput{
		TableName:                aws.String(table),
		Key:                      compositeKey("user_id", userID, "purpose", purpose),
		ConditionExpression:      aws.String("#c = :code AND (attribute_not_exists(#n) OR #n < :max)"),
		ExpressionAttributeNames: map[string]string{"#c": "code", "#n": "attempts"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
			":max":  &types.AttributeValueMemberN{Value: strconv.Itoa(domain.MaxCodeAttempts)},
		},
	}
}
