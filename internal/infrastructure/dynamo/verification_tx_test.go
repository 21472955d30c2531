package dynamo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringValue(t *testing.T, av types.AttributeValue) string {
	t.Helper()
	s, ok := av.(*types.AttributeValueMemberS)
	require.True(t, ok, "expected a string attribute, got %T", av)
	return s.Value
}

// statusValue returns the value the update expression assigns to "status".
func statusValue(t *testing.T, u *types.Update) string {
	t.Helper()
	for name, field := range u.ExpressionAttributeNames {
		if field == fieldStatus && name != "#cur" {
			return stringValue(t, u.ExpressionAttributeValues[":v"+name[2:]])
		}
	}
	t.Fatalf("update does not set status: %s", aws.ToString(u.UpdateExpression))
	return ""
}

func TestApproveItems_RequestAndBadgeTogether(t *testing.T) {
	now := time.Now().UTC()
	b := &domain.VerificationBadge{BadgeID: "b1", UserID: "u1", RequestID: "r1", Status: domain.BadgeApproved, IssuedAt: now}

	items, err := approveItems("requests", "badges", "r1", domain.StatusUnderReview,
		map[string]interface{}{"reviewer_id": "admin"}, b)
	require.NoError(t, err)
	require.Len(t, items, 2)

	req := items[0].Update
	require.NotNil(t, req)
	assert.Equal(t, "requests", aws.ToString(req.TableName))
	assert.Equal(t, "attribute_exists(request_id) AND #cur = :from", aws.ToString(req.ConditionExpression))
	assert.Equal(t, string(domain.StatusUnderReview), stringValue(t, req.ExpressionAttributeValues[":from"]))
	assert.Equal(t, string(domain.StatusApproved), statusValue(t, req))

	put := items[1].Put
	require.NotNil(t, put)
	assert.Equal(t, "badges", aws.ToString(put.TableName))
	assert.Equal(t, "attribute_not_exists(badge_id)", aws.ToString(put.ConditionExpression))
	assert.Equal(t, "b1", stringValue(t, put.Item["badge_id"]))
	assert.Equal(t, string(domain.BadgeApproved), stringValue(t, put.Item["status"]))
}

func TestApproveItems_DoesNotMutateCallerUpdates(t *testing.T) {
	updates := map[string]interface{}{"reviewer_id": "admin"}
	_, err := approveItems("requests", "badges", "r1", domain.StatusPending, updates, &domain.VerificationBadge{BadgeID: "b1"})
	require.NoError(t, err)
	assert.Len(t, updates, 1)
}

func TestRevokeItems_BothRequireApproved(t *testing.T) {
	items, err := revokeItems("requests", "badges", "b1", "r1",
		map[string]interface{}{"revoke_reason": "forged"},
		map[string]interface{}{"review_notes": "forged"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	badge := items[0].Update
	require.NotNil(t, badge)
	assert.Equal(t, "badges", aws.ToString(badge.TableName))
	assert.Equal(t, "attribute_exists(badge_id) AND #cur = :approved", aws.ToString(badge.ConditionExpression))
	assert.Equal(t, string(domain.BadgeApproved), stringValue(t, badge.ExpressionAttributeValues[":approved"]))
	assert.Equal(t, string(domain.BadgeRevoked), statusValue(t, badge))

	req := items[1].Update
	require.NotNil(t, req)
	assert.Equal(t, string(domain.StatusApproved), stringValue(t, req.ExpressionAttributeValues[":from"]))
	assert.Equal(t, string(domain.StatusRevoked), statusValue(t, req))
}

func TestExpireItems(t *testing.T) {
	tests := []struct {
		name    string
		badgeID string
		want    int
	}{
		{"with badge", "b1", 2},
		{"without badge", "", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, err := expireItems("requests", "badges", "r1", tc.badgeID)
			require.NoError(t, err)
			require.Len(t, items, tc.want)
			assert.Equal(t, string(domain.StatusExpired), statusValue(t, items[0].Update))
			if tc.badgeID != "" {
				assert.Equal(t, string(domain.BadgeExpired), statusValue(t, items[1].Update))
			}
		})
	}
}

func TestIsTxConditionFailed(t *testing.T) {
	cancelled := func(codes ...string) error {
		reasons := make([]types.CancellationReason, len(codes))
		for i, c := range codes {
			reasons[i] = types.CancellationReason{Code: aws.String(c)}
		}
		return &types.TransactionCanceledException{CancellationReasons: reasons}
	}
	assert.True(t, isTxConditionFailed(cancelled("None", "ConditionalCheckFailed")))
	assert.True(t, isTxConditionFailed(fmt.Errorf("write: %w", cancelled("ConditionalCheckFailed"))))
	assert.False(t, isTxConditionFailed(cancelled("None", "TransactionConflict")))
	assert.False(t, isTxConditionFailed(errors.New("timeout")))
	assert.False(t, isTxConditionFailed(nil))
}
