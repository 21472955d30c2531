package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diaspora-journey-api/internal/domain"
)

// VerificationRequestRepo stores credential verification requests.
// PK: request_id. GSIs: user_id+submitted_at, status+submitted_at.
type VerificationRequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRequestRepo(client *dynamodb.Client, tableName string) *VerificationRequestRepo {
	return &VerificationRequestRepo{client: client, tableName: tableName}
}

// Create inserts a new request; it fails with ErrConflict if the id already exists.
func (r *VerificationRequestRepo) Create(ctx context.Context, v *domain.VerificationRequest) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(request_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification request exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *VerificationRequestRepo) Get(ctx context.Context, requestID string) (*domain.VerificationRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("request_id", requestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification request not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationRequest
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByUser returns every request a user submitted, newest first.
func (r *VerificationRequestRepo) ListByUser(ctx context.Context, userID string) ([]domain.VerificationRequest, error) {
	return r.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserSubmitted),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

// ListByStatus returns every request currently in status, oldest first.
func (r *VerificationRequestRepo) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]domain.VerificationRequest, error) {
	return r.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexStatusSubmitted),
		KeyConditionExpression:   aws.String("#s = :s"),
		ExpressionAttributeNames: map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
}

// List returns one page of requests matching f. With a status the status GSI
// is queried newest first; without one the table is scanned. Filters on
// credential type and user are applied server-side, so a page may hold fewer
// than f.Limit items while a next cursor is still returned.
func (r *VerificationRequestRepo) List(ctx context.Context, f domain.VerificationFilter) ([]domain.VerificationRequest, string, error) {
	start, err := decodeCursor(f.Cursor)
	if err != nil {
		return nil, "", err
	}
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var filters []string
	if f.CredentialType != "" {
		names["#ct"] = "credential_type"
		values[":ct"] = &types.AttributeValueMemberS{Value: f.CredentialType}
		filters = append(filters, "#ct = :ct")
	}
	if f.UserID != "" {
		names["#uid"] = "user_id"
		values[":uid"] = &types.AttributeValueMemberS{Value: f.UserID}
		filters = append(filters, "#uid = :uid")
	}
	var filterExpr *string
	if len(filters) > 0 {
		filterExpr = aws.String(strings.Join(filters, " AND "))
	}

	var items []map[string]types.AttributeValue
	var last map[string]types.AttributeValue
	if f.Status != "" {
		names["#s"] = fieldStatus
		values[":s"] = &types.AttributeValueMemberS{Value: string(f.Status)}
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(indexStatusSubmitted),
			KeyConditionExpression:    aws.String("#s = :s"),
			FilterExpression:          filterExpr,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(int32(f.Limit)),
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, "", err
		}
		items, last = out.Items, out.LastEvaluatedKey
	} else {
		in := &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			FilterExpression:  filterExpr,
			Limit:             aws.Int32(int32(f.Limit)),
			ExclusiveStartKey: start,
		}
		if len(filters) > 0 {
			in.ExpressionAttributeNames = names
			in.ExpressionAttributeValues = values
		}
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return nil, "", err
		}
		items, last = out.Items, out.LastEvaluatedKey
	}

	reqs := []domain.VerificationRequest{}
	if err := attributevalue.UnmarshalListOfMaps(items, &reqs); err != nil {
		return nil, "", err
	}
	next, err := encodeCursor(last)
	if err != nil {
		return nil, "", err
	}
	return reqs, next, nil
}

// CountByStatus counts requests in status using COUNT queries over the status GSI.
func (r *VerificationRequestRepo) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexStatusSubmitted),
		KeyConditionExpression:   aws.String("#s = :s"),
		ExpressionAttributeNames: map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(status)},
		},
		Select: types.SelectCount,
	}
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(page.Count)
	}
	return total, nil
}

// Transition moves a request from one status to another and applies updates
// in the same write. The write is conditional on the stored status still
// being from; a concurrent change yields ErrConflict.
func (r *VerificationRequestRepo) Transition(ctx context.Context, requestID string, from, to domain.VerificationStatus, updates map[string]interface{}) error {
	u, err := requestTransition(r.tableName, requestID, from, to, updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 u.TableName,
		Key:                       u.Key,
		UpdateExpression:          u.UpdateExpression,
		ConditionExpression:       u.ConditionExpression,
		ExpressionAttributeNames:  u.ExpressionAttributeNames,
		ExpressionAttributeValues: u.ExpressionAttributeValues,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("request %s is no longer %s: %w", requestID, from, domain.ErrConflict)
	}
	return err
}

// requestTransition builds the conditional from -> to update shared by
// Transition and the multi-item writes in VerificationTx.
func requestTransition(table, requestID string, from, to domain.VerificationStatus, updates map[string]interface{}) (*types.Update, error) {
	fields := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		fields[k] = v
	}
	fields[fieldStatus] = to
	fields[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return nil, err
	}
	ue.Names["#cur"] = fieldStatus
	ue.Values[":from"] = &types.AttributeValueMemberS{Value: string(from)}
	return &types.Update{
		TableName:                 aws.String(table),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(request_id) AND #cur = :from"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}

func (r *VerificationRequestRepo) queryAll(ctx context.Context, in *dynamodb.QueryInput) ([]domain.VerificationRequest, error) {
	reqs := []domain.VerificationRequest{}
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.VerificationRequest
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		reqs = append(reqs, batch...)
	}
	return reqs, nil
}
