package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/diaspora-journey-api/internal/domain"
)

// DependencyRepo stores edges between journey stages.
type DependencyRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDependencyRepo(client *dynamodb.Client, tableName string) *DependencyRepo {
	return &DependencyRepo{client: client, tableName: tableName}
}

func (r *DependencyRepo) Put(ctx context.Context, d *domain.StageDependency) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal dependency: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DependencyRepo) Delete(ctx context.Context, dependencyID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("dependency_id", dependencyID),
		ConditionExpression: aws.String("attribute_exists(dependency_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("dependency not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *DependencyRepo) Scan(ctx context.Context) ([]domain.StageDependency, error) {
	deps := []domain.StageDependency{}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.StageDependency
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		deps = append(deps, batch...)
	}
	return deps, nil
}
