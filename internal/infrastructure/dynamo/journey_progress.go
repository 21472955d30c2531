package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diaspora-journey-api/internal/domain"
)

// ProgressRepo stores per-user stage progress. PK: user_id, SK: stage_id.
type ProgressRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProgressRepo(client *dynamodb.Client, tableName string) *ProgressRepo {
	return &ProgressRepo{client: client, tableName: tableName}
}

// Upsert creates or updates the (user, stage) row in a single UpdateItem, so
// concurrent writers never produce duplicate rows. started_at is only set the
// first time the stage leaves not_started; completed_at is set when status is
// completed and cleared otherwise. Returns the stored row.
func (r *ProgressRepo) Upsert(ctx context.Context, p *domain.UserJourneyProgress) (*domain.UserJourneyProgress, error) {
	ue, err := progressUpdate(p, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("user_id", p.UserID, "stage_id", p.StageID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var stored domain.UserJourneyProgress
	if err := attributevalue.UnmarshalMap(out.Attributes, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func progressUpdate(p *domain.UserJourneyProgress, now time.Time) (*updateExpr, error) {
	fields := map[string]interface{}{
		"status":     p.Status,
		"percentage": p.Percentage,
		"notes":      p.Notes,
		"updated_at": now,
	}
	if p.ActualCost != nil {
		fields["actual_cost"] = *p.ActualCost
	}
	if p.ActualDurationDays != nil {
		fields["actual_duration_days"] = *p.ActualDurationDays
	}
	if p.Status == domain.ProgressCompleted {
		fields["completed_at"] = now
	}
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProgressNotStarted {
		av, err := attributevalue.Marshal(now)
		if err != nil {
			return nil, err
		}
		ue.Names["#started"] = "started_at"
		ue.Values[":now"] = av
		ue.Expr += ", #started = if_not_exists(#started, :now)"
	}
	if p.Status != domain.ProgressCompleted {
		ue.Names["#completed"] = "completed_at"
		ue.Expr += " REMOVE #completed"
	}
	return ue, nil
}

func (r *ProgressRepo) ListByUser(ctx context.Context, userID string) ([]domain.UserJourneyProgress, error) {
	rows := []domain.UserJourneyProgress{}
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ConsistentRead: aws.Bool(true),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.UserJourneyProgress
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal progress: %w", err)
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}
