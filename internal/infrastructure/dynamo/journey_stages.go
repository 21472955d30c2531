package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/diaspora-journey-api/internal/domain"
)

// StageRepo stores the journey stage catalog. The catalog is small, so
// listing is a paginated scan.
type StageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewStageRepo(client *dynamodb.Client, tableName string) *StageRepo {
	return &StageRepo{client: client, tableName: tableName}
}

func (r *StageRepo) Put(ctx context.Context, s *domain.JourneyStage) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal stage: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *StageRepo) Get(ctx context.Context, stageID string) (*domain.JourneyStage, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("stage_id", stageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("stage not found: %w", domain.ErrNotFound)
	}
	var s domain.JourneyStage
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StageRepo) Scan(ctx context.Context) ([]domain.JourneyStage, error) {
	stages := []domain.JourneyStage{}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.JourneyStage
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		stages = append(stages, batch...)
	}
	return stages, nil
}

func (r *StageRepo) Update(ctx context.Context, stageID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("stage_id", stageID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(stage_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("stage not found: %w", domain.ErrNotFound)
	}
	return err
}
