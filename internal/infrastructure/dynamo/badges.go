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

// BadgeRepo reads badges issued for approved verification requests.
// Writes go through VerificationTx together with the owning request.
type BadgeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBadgeRepo(client *dynamodb.Client, tableName string) *BadgeRepo {
	return &BadgeRepo{client: client, tableName: tableName}
}

func (r *BadgeRepo) Get(ctx context.Context, badgeID string) (*domain.VerificationBadge, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("badge_id", badgeID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("badge not found: %w", domain.ErrNotFound)
	}
	var b domain.VerificationBadge
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BadgeRepo) ListByUser(ctx context.Context, userID string) ([]domain.VerificationBadge, error) {
	return r.query(ctx, indexUserID, "user_id", userID)
}

func (r *BadgeRepo) GetByRequest(ctx context.Context, requestID string) (*domain.VerificationBadge, error) {
	badges, err := r.query(ctx, indexRequestID, "request_id", requestID)
	if err != nil {
		return nil, err
	}
	if len(badges) == 0 {
		return nil, fmt.Errorf("badge not found: %w", domain.ErrNotFound)
	}
	return &badges[0], nil
}

// badgeTransition builds the update that moves an approved badge to status.
func badgeTransition(table, badgeID string, status domain.BadgeStatus, updates map[string]interface{}) (*types.Update, error) {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields[fieldStatus] = status
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return nil, err
	}
	ue.Names["#cur"] = fieldStatus
	ue.Values[":approved"] = &types.AttributeValueMemberS{Value: string(domain.BadgeApproved)}
	return &types.Update{
		TableName:                 aws.String(table),
		Key:                       strKey("badge_id", badgeID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(badge_id) AND #cur = :approved"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}

func (r *BadgeRepo) query(ctx context.Context, index, attr, value string) ([]domain.VerificationBadge, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	})
	if err != nil {
		return nil, err
	}
	badges := []domain.VerificationBadge{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}
