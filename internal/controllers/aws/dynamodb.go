package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the stores.
type DynamoDBAPI interface {
	dynamodb.QueryAPIClient
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// KeyQuery builds a query input for the given key condition, optionally against a secondary index.
func KeyQuery(table, index string, keyCond expression.KeyConditionBuilder) (*dynamodb.QueryInput, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build key condition")
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}
	return input, nil
}

// QueryAll runs the query and follows LastEvaluatedKey until every page is read.
// The items of all pages are returned as one slice.
func QueryAll[T any](ctx context.Context, client dynamodb.QueryAPIClient, input *dynamodb.QueryInput) ([]T, error) {
	items := make([]T, 0)
	paginator := dynamodb.NewQueryPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to query %s", aws.ToString(input.TableName))
		}
		var batch []T
		if err = attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal query page")
		}
		items = append(items, batch...)
	}
	return items, nil
}

// ScanAll reads every page of a table scan.
func ScanAll[T any](ctx context.Context, client dynamodb.ScanAPIClient, table string) ([]T, error) {
	items := make([]T, 0)
	paginator := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{TableName: aws.String(table)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s", table)
		}
		var batch []T
		if err = attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal scan page")
		}
		items = append(items, batch...)
	}
	return items, nil
}

// PutItem marshals item and writes it to the table, overwriting any item with the same key.
func PutItem(ctx context.Context, client DynamoDBAPI, table string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.Wrap(err, "failed to marshal item")
	}
	if _, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}); err != nil {
		return errors.Wrapf(err, "failed to put item to %s", table)
	}
	return nil
}

// DeleteItem deletes the item identified by the given string key attributes.
func DeleteItem(ctx context.Context, client DynamoDBAPI, table string, key map[string]string) error {
	if _, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       stringKey(key),
	}); err != nil {
		return errors.Wrapf(err, "failed to delete item from %s", table)
	}
	return nil
}

// GetItem reads one item by its string key attributes. A missing item returns found=false and no error.
func GetItem[T any](ctx context.Context, client DynamoDBAPI, table string, key map[string]string) (item T, found bool, err error) {
	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       stringKey(key),
	})
	if err != nil {
		return item, false, errors.Wrapf(err, "failed to get item from %s", table)
	}
	if out.Item == nil {
		return item, false, nil
	}
	if err = attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return item, false, errors.Wrap(err, "failed to unmarshal item")
	}
	return item, true, nil
}

// UpdateItem applies the update expression to the item identified by the given string key attributes.
func UpdateItem(ctx context.Context, client DynamoDBAPI, table string, key map[string]string, update expression.UpdateBuilder) error {
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return errors.Wrap(err, "failed to build update expression")
	}
	if _, err = client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       stringKey(key),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}); err != nil {
		return errors.Wrapf(err, "failed to update item in %s", table)
	}
	return nil
}

func stringKey(key map[string]string) map[string]types.AttributeValue {
	k := make(map[string]types.AttributeValue, len(key))
	for name, value := range key {
		k[name] = &types.AttributeValueMemberS{Value: value}
	}
	return k
}
