// Package fake provides in-memory stand-ins for the AWS clients, recording every request they receive.
package fake

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB serves canned query and scan pages in order and records every write.
// When Err is set, every call fails with it.
type DynamoDB struct {
	mu sync.Mutex

	QueryPages []*dynamodb.QueryOutput
	ScanPages  []*dynamodb.ScanOutput
	Items      map[string]map[string]types.AttributeValue
	Err        error

	QueryInputs  []*dynamodb.QueryInput
	ScanInputs   []*dynamodb.ScanInput
	GetInputs    []*dynamodb.GetItemInput
	PutInputs    []*dynamodb.PutItemInput
	UpdateInputs []*dynamodb.UpdateItemInput
	DeleteInputs []*dynamodb.DeleteItemInput
}

// Query implements dynamodb.QueryAPIClient.
func (d *DynamoDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.QueryInputs = append(d.QueryInputs, params)
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.QueryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := d.QueryPages[0]
	d.QueryPages = d.QueryPages[1:]
	return page, nil
}

// Scan implements dynamodb.ScanAPIClient.
func (d *DynamoDB) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ScanInputs = append(d.ScanInputs, params)
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.ScanPages) == 0 {
		return &dynamodb.ScanOutput{}, nil
	}
	page := d.ScanPages[0]
	d.ScanPages = d.ScanPages[1:]
	return page, nil
}

// GetItem returns the item stored in Items under the first string key value, if any.
func (d *DynamoDB) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.GetInputs = append(d.GetInputs, params)
	if d.Err != nil {
		return nil, d.Err
	}
	for _, v := range params.Key {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			return &dynamodb.GetItemOutput{Item: d.Items[s.Value]}, nil
		}
	}
	return &dynamodb.GetItemOutput{}, nil
}

// PutItem records the input.
func (d *DynamoDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PutInputs = append(d.PutInputs, params)
	if d.Err != nil {
		return nil, d.Err
	}
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem records the input.
func (d *DynamoDB) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UpdateInputs = append(d.UpdateInputs, params)
	if d.Err != nil {
		return nil, d.Err
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem records the input.
func (d *DynamoDB) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DeleteInputs = append(d.DeleteInputs, params)
	if d.Err != nil {
		return nil, d.Err
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

// QueryPage marshals items into a query page. A non-empty next key marks more pages.
func QueryPage[T any](items []T, nextKey string) *dynamodb.QueryOutput {
	out := &dynamodb.QueryOutput{Items: marshalAll(items)}
	out.Count = int32(len(out.Items))
	if nextKey != "" {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"next": &types.AttributeValueMemberS{Value: nextKey},
		}
	}
	return out
}

// ScanPage marshals items into a scan page. A non-empty next key marks more pages.
func ScanPage[T any](items []T, nextKey string) *dynamodb.ScanOutput {
	out := &dynamodb.ScanOutput{Items: marshalAll(items)}
	out.Count = int32(len(out.Items))
	if nextKey != "" {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"next": &types.AttributeValueMemberS{Value: nextKey},
		}
	}
	return out
}

// PutItems unmarshals every recorded PutItem payload into T.
func PutItems[T any](d *DynamoDB) []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := make([]T, 0, len(d.PutInputs))
	for _, in := range d.PutInputs {
		var item T
		if err := attributevalue.UnmarshalMap(in.Item, &item); err != nil {
			panic(err)
		}
		items = append(items, item)
	}
	return items
}

// MustMarshal marshals v into an item or panics.
func MustMarshal(v any) map[string]types.AttributeValue {
	av, err := attributevalue.MarshalMap(v)
	if err != nil {
		panic(err)
	}
	return av
}

// ExpressionValues flattens the string and number attribute values of an expression.
func ExpressionValues(values map[string]types.AttributeValue) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		switch tv := v.(type) {
		case *types.AttributeValueMemberS:
			out = append(out, tv.Value)
		case *types.AttributeValueMemberN:
			out = append(out, tv.Value)
		}
	}
	return out
}

func marshalAll[T any](items []T) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		out = append(out, MustMarshal(item))
	}
	return out
}
