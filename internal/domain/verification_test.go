package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := map[VerificationStatus][]VerificationStatus{
		StatusPending:     {StatusUnderReview, StatusApproved, StatusRejected},
		StatusUnderReview: {StatusApproved, StatusRejected, StatusPending},
		StatusApproved:    {StatusExpired, StatusRevoked},
	}
	for _, from := range AllVerificationStatuses {
		for _, to := range AllVerificationStatuses {
			want := false
			for _, ok := range legal[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransition_WrapsSentinel(t *testing.T) {
	err := CheckTransition(StatusRevoked, StatusApproved)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "revoked -> approved")
	assert.NoError(t, CheckTransition(StatusPending, StatusUnderReview))
}

func TestReviewActionTarget(t *testing.T) {
	to, ok := ActionReturn.Target()
	assert.True(t, ok)
	assert.Equal(t, StatusPending, to)

	_, ok = ReviewAction("escalate").Target()
	assert.False(t, ok)
}

func TestMissingDocuments(t *testing.T) {
	ct, ok := LookupCredentialType(CredentialEducation)
	require.True(t, ok)

	assert.Equal(t, []string{"diploma", "transcript"}, ct.MissingDocuments(nil))
	assert.Equal(t, []string{"transcript"}, ct.MissingDocuments([]VerificationDocument{{Kind: "diploma"}, {Kind: "supporting"}}))
	assert.Empty(t, ct.MissingDocuments([]VerificationDocument{{Kind: "transcript"}, {Kind: "diploma"}}))
}

func TestCredentialTypes_ReturnsCopy(t *testing.T) {
	types := CredentialTypes()
	types[0].Code = "tampered"
	again, ok := LookupCredentialType(CredentialEducation)
	assert.True(t, ok)
	assert.Equal(t, CredentialEducation, again.Code)
}
