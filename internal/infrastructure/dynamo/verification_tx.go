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

// VerificationTx changes a request and its badge in one TransactWriteItems
// call, so the requests and badges tables never disagree.
type VerificationTx struct {
	client        *dynamodb.Client
	requestsTable string
	badgesTable   string
}

func NewVerificationTx(client *dynamodb.Client, requestsTable, badgesTable string) *VerificationTx {
	return &VerificationTx{client: client, requestsTable: requestsTable, badgesTable: badgesTable}
}

// Approve moves the request from -> approved and inserts b.
func (t *VerificationTx) Approve(ctx context.Context, requestID string, from domain.VerificationStatus, updates map[string]interface{}, b *domain.VerificationBadge) error {
	items, err := approveItems(t.requestsTable, t.badgesTable, requestID, from, updates, b)
	if err != nil {
		return err
	}
	return t.write(ctx, items, fmt.Sprintf("request %s is no longer %s", requestID, from))
}

// Revoke moves an approved badge to revoked and its approved request to revoked.
func (t *VerificationTx) Revoke(ctx context.Context, badgeID, requestID string, badgeUpdates, requestUpdates map[string]interface{}) error {
	items, err := revokeItems(t.requestsTable, t.badgesTable, badgeID, requestID, badgeUpdates, requestUpdates)
	if err != nil {
		return err
	}
	return t.write(ctx, items, fmt.Sprintf("badge %s is no longer approved", badgeID))
}

// Expire moves an approved request to expired, and its badge too when
// badgeID is set.
func (t *VerificationTx) Expire(ctx context.Context, requestID, badgeID string) error {
	items, err := expireItems(t.requestsTable, t.badgesTable, requestID, badgeID)
	if err != nil {
		return err
	}
	return t.write(ctx, items, fmt.Sprintf("request %s is no longer approved", requestID))
}

func (t *VerificationTx) write(ctx context.Context, items []types.TransactWriteItem, conflict string) error {
	_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if isTxConditionFailed(err) {
		return fmt.Errorf("%s: %w", conflict, domain.ErrConflict)
	}
	return err
}

func approveItems(requestsTable, badgesTable, requestID string, from domain.VerificationStatus, updates map[string]interface{}, b *domain.VerificationBadge) ([]types.TransactWriteItem, error) {
	req, err := requestTransition(requestsTable, requestID, from, domain.StatusApproved, updates)
	if err != nil {
		return nil, err
	}
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return nil, fmt.Errorf("marshal badge: %w", err)
	}
	return []types.TransactWriteItem{
		{Update: req},
		{Put: &types.Put{
			TableName:           aws.String(badgesTable),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(badge_id)"),
		}},
	}, nil
}

func revokeItems(requestsTable, badgesTable, badgeID, requestID string, badgeUpdates, requestUpdates map[string]interface{}) ([]types.TransactWriteItem, error) {
	badge, err := badgeTransition(badgesTable, badgeID, domain.BadgeRevoked, badgeUpdates)
	if err != nil {
		return nil, err
	}
	req, err := requestTransition(requestsTable, requestID, domain.StatusApproved, domain.StatusRevoked, requestUpdates)
	if err != nil {
		return nil, err
	}
	return []types.TransactWriteItem{{Update: badge}, {Update: req}}, nil
}

func expireItems(requestsTable, badgesTable, requestID, badgeID string) ([]types.TransactWriteItem, error) {
	req, err := requestTransition(requestsTable, requestID, domain.StatusApproved, domain.StatusExpired, nil)
	if err != nil {
		return nil, err
	}
	items := []types.TransactWriteItem{{Update: req}}
	if badgeID != "" {
		badge, err := badgeTransition(badgesTable, badgeID, domain.BadgeExpired, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, types.TransactWriteItem{Update: badge})
	}
	return items, nil
}
