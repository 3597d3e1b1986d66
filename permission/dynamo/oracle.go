// Package dynamo implements a permission.Oracle backed by DynamoDB.
//
// Table schema:
//   - Partition key: datatype_id (number)
//   - records (binary): portable Roaring bitmap of the non-public record ids
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name facetree-visibility \
//	  --attribute-definitions AttributeName=datatype_id,AttributeType=N \
//	  --key-schema AttributeName=datatype_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
)

// Client is the subset of the DynamoDB API the oracle needs.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

const (
	keyAttr     = "datatype_id"
	recordsAttr = "records"
)

// Oracle reads non-public record ids from DynamoDB.
type Oracle struct {
	client    Client
	tableName string
}

// NewOracle creates an Oracle reading from tableName.
func NewOracle(client Client, tableName string) *Oracle {
	return &Oracle{client: client, tableName: tableName}
}

// NonPublicRecords implements permission.Oracle. A missing item means the
// datatype has no non-public records.
func (o *Oracle) NonPublicRecords(ctx context.Context, dt model.DatatypeID) (*recordset.Set, error) {
	resp, err := o.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(o.tableName),
		Key:            key(dt),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: get visibility of datatype %d: %w", dt, err)
	}
	if len(resp.Item) == 0 {
		return recordset.New(), nil
	}

	attr, ok := resp.Item[recordsAttr].(*types.AttributeValueMemberB)
	if !ok {
		return nil, errors.New("dynamo: invalid records attribute")
	}
	set := recordset.New()
	if err := set.UnmarshalBinary(attr.Value); err != nil {
		return nil, fmt.Errorf("dynamo: decode records of datatype %d: %w", dt, err)
	}
	return set, nil
}

// SetNonPublicRecords stores the non-public record ids of a datatype,
// replacing any previous value.
func (o *Oracle) SetNonPublicRecords(ctx context.Context, dt model.DatatypeID, ids *recordset.Set) error {
	data, err := ids.MarshalBinary()
	if err != nil {
		return err
	}
	item := key(dt)
	item[recordsAttr] = &types.AttributeValueMemberB{Value: data}

	_, err = o.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(o.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamo: put visibility of datatype %d: %w", dt, err)
	}
	return nil
}

func key(dt model.DatatypeID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(dt), 10)},
	}
}
