package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/domain"
)

const defaultPageLimit = 50

// PageQuery is the cursor pagination accepted by list endpoints.
type PageQuery struct {
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=200"`
	Cursor string `json:"cursor" validate:"omitempty,max=2048"`
}

func parsePage(r *http.Request) PageQuery {
	return PageQuery{Limit: queryInt(r, "limit"), Cursor: r.URL.Query().Get("cursor")}
}

func (q PageQuery) effectiveLimit() int {
	if q.Limit == 0 {
		return defaultPageLimit
	}
	return q.Limit
}

type verificationQuery struct {
	PageQuery
	Status         string `json:"status" validate:"omitempty,oneof=pending under_review approved rejected expired revoked"`
	CredentialType string `json:"credential_type" validate:"omitempty,oneof=education employment certification skills"`
	UserID         string `json:"user_id" validate:"omitempty,max=64"`
}

func parseVerificationQuery(r *http.Request) verificationQuery {
	q := r.URL.Query()
	return verificationQuery{
		PageQuery:      parsePage(r),
		Status:         q.Get("status"),
		CredentialType: q.Get("credential_type"),
		UserID:         q.Get("user_id"),
	}
}

func (q verificationQuery) filter() domain.VerificationFilter {
	return domain.VerificationFilter{
		Status:         domain.VerificationStatus(q.Status),
		CredentialType: q.CredentialType,
		UserID:         q.UserID,
		Limit:          q.Limit,
		Cursor:         q.Cursor,
	}
}

type securityEventQuery struct {
	PageQuery
	Type   string `json:"type" validate:"omitempty,max=64"`
	UserID string `json:"user_id" validate:"omitempty,max=64"`
}

func parseSecurityEventQuery(r *http.Request) securityEventQuery {
	return securityEventQuery{
		PageQuery: parsePage(r),
		Type:      r.URL.Query().Get("type"),
		UserID:    r.URL.Query().Get("user_id"),
	}
}

type stageQuery struct {
	Category       string `json:"category" validate:"omitempty,max=60"`
	IncludePremium bool   `json:"include_premium"`
}

func parseStageQuery(r *http.Request) stageQuery {
	return stageQuery{Category: r.URL.Query().Get("category"), IncludePremium: queryBool(r, "include_premium")}
}
