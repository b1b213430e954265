package aws_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/controllers/aws/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string `dynamodbav:"id"`
	Value int    `dynamodbav:"value"`
}

func TestQueryAll(t *testing.T) {
	testCases := []struct {
		Name          string
		Pages         [][]item
		ExpectedCalls int
		ExpectedItems int
	}{
		{
			Name:          "no_items",
			Pages:         [][]item{{}},
			ExpectedCalls: 1,
			ExpectedItems: 0,
		},
		{
			Name:          "single_page",
			Pages:         [][]item{{{ID: "a"}, {ID: "b"}}},
			ExpectedCalls: 1,
			ExpectedItems: 2,
		},
		{
			Name:          "three_pages",
			Pages:         [][]item{{{ID: "a"}, {ID: "b"}}, {{ID: "c"}}, {{ID: "d"}, {ID: "e"}}},
			ExpectedCalls: 3,
			ExpectedItems: 5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			db := &fake.DynamoDB{}
			for i, p := range tc.Pages {
				next := ""
				if i < len(tc.Pages)-1 {
					next = string(rune('a' + i))
				}
				db.QueryPages = append(db.QueryPages, fake.QueryPage(p, next))
			}

			input, err := awsctl.KeyQuery("table", "", expression.Key("id").Equal(expression.Value("a")))
			require.NoError(t, err)

			items, err := awsctl.QueryAll[item](context.Background(), db, input)
			require.NoError(t, err)
			assert.Len(t, items, tc.ExpectedItems)
			assert.Len(t, db.QueryInputs, tc.ExpectedCalls)
			assert.Nil(t, db.QueryInputs[0].ExclusiveStartKey)
			for i := 1; i < len(db.QueryInputs); i++ {
				assert.NotNil(t, db.QueryInputs[i].ExclusiveStartKey, "page %d must continue from the previous key", i)
			}
		})
	}
}

func TestQueryAll_Error(t *testing.T) {
	db := &fake.DynamoDB{Err: errors.New("ResourceNotFoundException")}
	input, err := awsctl.KeyQuery("table", "index", expression.Key("id").Equal(expression.Value("a")))
	require.NoError(t, err)
	assert.Equal(t, "index", *input.IndexName)

	_, err = awsctl.QueryAll[item](context.Background(), db, input)
	assert.ErrorContains(t, err, "ResourceNotFoundException")
}

func TestScanAll(t *testing.T) {
	db := &fake.DynamoDB{ScanPages: []*dynamodb.ScanOutput{
		fake.ScanPage([]item{{ID: "a"}}, "a"),
		fake.ScanPage([]item{{ID: "b"}, {ID: "c"}}, ""),
	}}

	items, err := awsctl.ScanAll[item](context.Background(), db, "table")
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "a"}, {ID: "b"}, {ID: "c"}}, items)
	assert.Len(t, db.ScanInputs, 2)
}

func TestPutAndDeleteItem(t *testing.T) {
	db := &fake.DynamoDB{}
	require.NoError(t, awsctl.PutItem(context.Background(), db, "table", item{ID: "a", Value: 3}))
	require.NoError(t, awsctl.DeleteItem(context.Background(), db, "table", map[string]string{"id": "a"}))

	assert.Equal(t, []item{{ID: "a", Value: 3}}, fake.PutItems[item](db))
	require.Len(t, db.DeleteInputs, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "a"}, db.DeleteInputs[0].Key["id"])
}

func TestGetItem(t *testing.T) {
	db := &fake.DynamoDB{Items: map[string]map[string]types.AttributeValue{
		"a": fake.MustMarshal(item{ID: "a", Value: 1}),
	}}

	got, found, err := awsctl.GetItem[item](context.Background(), db, "table", map[string]string{"id": "a"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, item{ID: "a", Value: 1}, got)

	_, found, err = awsctl.GetItem[item](context.Background(), db, "table", map[string]string{"id": "b"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateItem(t *testing.T) {
	db := &fake.DynamoDB{}
	update := expression.Set(expression.Name("StateValue"), expression.Value("ALARM")).
		Set(expression.Name("StateUpdated"), expression.Value(int64(1600000000)))
	key := map[string]string{"RegionAlarmName": "us-west-2:high-latency", "ResourceArn": "arn:1"}
	require.NoError(t, awsctl.UpdateItem(context.Background(), db, "table", key, update))

	require.Len(t, db.UpdateInputs, 1)
	in := db.UpdateInputs[0]
	assert.Equal(t, &types.AttributeValueMemberS{Value: "arn:1"}, in.Key["ResourceArn"])
	assert.Contains(t, *in.UpdateExpression, "SET")
	assert.ElementsMatch(t, []string{"ALARM", "1600000000"}, fake.ExpressionValues(in.ExpressionAttributeValues))

	db.Err = errors.New("throttled")
	assert.Error(t, awsctl.UpdateItem(context.Background(), db, "table", key, update))
}
