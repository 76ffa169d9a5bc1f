package domain

import "time"

// Identity is a verified registered user. Created exactly once, at the first
// successful signup OTP verification for its email. Email is stored lowercased.
type Identity struct {
	IdentityID string    `json:"id" dynamodbav:"identity_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Email      string    `json:"email" dynamodbav:"email"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}
