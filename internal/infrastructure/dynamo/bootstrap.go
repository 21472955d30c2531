package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diaspora-journey-api/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; skips tables that already exist.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, in := range tableDefinitions(tables) {
		createTable(ctx, client, in)
	}
	enableTTL(ctx, client, tables.OneTimeCodes, "expires_at")
}

func tableDefinitions(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:            aws.String(tables.Users),
			AttributeDefinitions: attrs("user_id", "S", "username", "S", "email", "S", "enable", "N"),
			KeySchema:            keys("user_id", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUsername, "username", ""),
				gsi(indexEmail, "email", ""),
				gsi(indexEnable, "enable", ""),
			},
		},
		{
			TableName:            aws.String(tables.Sessions),
			AttributeDefinitions: attrs("session_id", "S", "user_id", "S", "refresh_token", "S"),
			KeySchema:            keys("session_id", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserID, "user_id", ""),
				gsi(indexRefreshToken, "refresh_token", ""),
			},
		},
		{
			TableName:            aws.String(tables.OneTimeCodes),
			AttributeDefinitions: attrs("user_id", "S", "purpose", "S"),
			KeySchema:            keys("user_id", "purpose"),
		},
		{
			TableName:            aws.String(tables.Notifications),
			AttributeDefinitions: attrs("notification_id", "S", "user_id", "S", "created_at", "S"),
			KeySchema:            keys("notification_id", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserCreated, "user_id", "created_at"),
			},
		},
		{
			TableName:            aws.String(tables.VerificationRequests),
			AttributeDefinitions: attrs("request_id", "S", "user_id", "S", "status", "S", "submitted_at", "S"),
			KeySchema:            keys("request_id", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserSubmitted, "user_id", "submitted_at"),
				gsi(indexStatusSubmitted, "status", "submitted_at"),
			},
		},
		{
			TableName:            aws.String(tables.VerificationDocs),
			AttributeDefinitions: attrs("request_id", "S", "document_id", "S"),
			KeySchema:            keys("request_id", "document_id"),
		},
		{
			TableName:            aws.String(tables.VerificationAudit),
			AttributeDefinitions: attrs("request_id", "S", "entry_id", "S"),
			KeySchema:            keys("request_id", "entry_id"),
		},
		{
			TableName:            aws.String(tables.Badges),
			AttributeDefinitions: attrs("badge_id", "S", "user_id", "S", "request_id", "S"),
			KeySchema:            keys("badge_id", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserID, "user_id", ""),
				gsi(indexRequestID, "request_id", ""),
			},
		},
		{
			TableName:            aws.String(tables.JourneyStages),
			AttributeDefinitions: attrs("stage_id", "S"),
			KeySchema:            keys("stage_id", ""),
		},
		{
			TableName:            aws.String(tables.StageDependencies),
			AttributeDefinitions: attrs("dependency_id", "S"),
			KeySchema:            keys("dependency_id", ""),
		},
		{
			TableName:            aws.String(tables.JourneyProgress),
			AttributeDefinitions: attrs("user_id", "S", "stage_id", "S"),
			KeySchema:            keys("user_id", "stage_id"),
		},
		{
			TableName:            aws.String(tables.SecurityEvents),
			AttributeDefinitions: attrs("event_id", "S", "user_id", "S", "event_type", "S", "created_at", "S"),
			KeySchema:            keys("event_id", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserCreated, "user_id", "created_at"),
				gsi(indexEventTypeCreatedAt, "event_type", "created_at"),
			},
		},
	}
}

// attrs builds attribute definitions from name/type pairs ("S" or "N").
func attrs(pairs ...string) []types.AttributeDefinition {
	out := make([]types.AttributeDefinition, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.AttributeDefinition{
			AttributeName: aws.String(pairs[i]),
			AttributeType: types.ScalarAttributeType(pairs[i+1]),
		})
	}
	return out
}

func keys(hashKey, sortKey string) []types.KeySchemaElement {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange})
	}
	return ks
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  keys(hashKey, sortKey),
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	input.BillingMode = types.BillingModePayPerRequest
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	slog.Info("created table", "table", *input.TableName)
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
