package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/staysquare/api/internal/domain"
)

// ListingRepo provides typed DynamoDB operations for the listings table.
type ListingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewListingRepo(client *dynamodb.Client, tableName string) *ListingRepo {
	return &ListingRepo{client: client, tableName: tableName}
}

func (r *ListingRepo) Put(ctx context.Context, l *domain.Listing) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ListingRepo) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("listing_id", listingID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	var l domain.Listing
	if err := attributevalue.UnmarshalMap(out.Item, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListAll returns every listing. The catalogue is small enough that a Scan is
// the honest operation here; there is no filter index to query.
func (r *ListingRepo) ListAll(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Listing
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		listings = append(listings, page...)
		if out.LastEvaluatedKey == nil {
			return listings, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListByOwner returns the owner's listings, newest first.
func (r *ListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("owner_id-created_at-index"),
		KeyConditionExpression:    aws.String("#o = :v"),
		ExpressionAttributeNames:  map[string]string{"#o": "owner_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: ownerID}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var listings []domain.Listing
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Delete removes the listing unconditionally. Ownership is checked by the
// listing service before calling this.
func (r *ListingRepo) Delete(ctx context.Context, listingID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("listing_id", listingID),
	})
	return err
}
