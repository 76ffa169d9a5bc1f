package domain

// PendingOTP is a one-time code awaiting verification. At most one row exists
// per email; re-issue replaces it. ExpiresAt is a Unix timestamp doubling as
// the DynamoDB TTL attribute.
type PendingOTP struct {
	Email     string `json:"email" dynamodbav:"email"`
	Name      string `json:"name" dynamodbav:"name"`
	Code      string `json:"-" dynamodbav:"code"` // 6 ASCII digits, leading zeros preserved
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}
