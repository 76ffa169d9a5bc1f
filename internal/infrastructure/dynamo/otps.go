package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/staysquare/api/internal/domain"
)

// OTPRepo manages pending one-time codes, keyed by email.
//
// Expiry is enforced lazily on read: a row whose expires_at has passed is
// treated as absent and best-effort deleted. DynamoDB TTL on the same
// attribute acts only as a janitor; correctness never depends on it.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName, now: time.Now}
}

// Put upserts the pending code for otp.Email. PutItem replaces the whole row
// atomically, which is what makes overwrite-on-reissue race-free.
func (r *OTPRepo) Put(ctx context.Context, otp *domain.PendingOTP) error {
	item, err := attributevalue.MarshalMap(otp)
	if err != nil {
		return fmt.Errorf("marshal pending otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Get(ctx context.Context, email string) (*domain.PendingOTP, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending otp not found: %w", domain.ErrNotFound)
	}
	var otp domain.PendingOTP
	if err := attributevalue.UnmarshalMap(out.Item, &otp); err != nil {
		return nil, err
	}
	if otp.ExpiresAt < r.now().Unix() {
		if err := r.Delete(ctx, email); err != nil {
			slog.Warn("could not evict expired otp", "email", email, "err", err)
		}
		return nil, fmt.Errorf("pending otp expired: %w", domain.ErrNotFound)
	}
	return &otp, nil
}

func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	return err
}
