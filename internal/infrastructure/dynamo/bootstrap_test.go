package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/diaspora-journey-api/internal/config"
	"github.com/stretchr/testify/assert"
)

// Every key attribute used by a table or GSI must be declared, and nothing else.
func TestTableDefinitions_AttributesMatchKeys(t *testing.T) {
	for _, in := range tableDefinitions(config.Load().DynamoTables) {
		declared := map[string]bool{}
		for _, a := range in.AttributeDefinitions {
			declared[aws.ToString(a.AttributeName)] = true
		}
		used := map[string]bool{}
		for _, k := range in.KeySchema {
			used[aws.ToString(k.AttributeName)] = true
		}
		for _, g := range in.GlobalSecondaryIndexes {
			for _, k := range g.KeySchema {
				used[aws.ToString(k.AttributeName)] = true
			}
		}
		assert.Equal(t, declared, used, "table %s", aws.ToString(in.TableName))
	}
}

func TestAttrs_Pairs(t *testing.T) {
	a := attrs("id", "S", "n", "N")
	assert.Len(t, a, 2)
	assert.Equal(t, "N", string(a[1].AttributeType))
}
