package auth

import (
	"time"

	"github.com/google/uuid"
)

// Code is a one-time login code. Once consumed it carries the session token it minted
// and from then on acts as the seller's session.
type Code struct {
	ID           uuid.UUID
	EstimationID uuid.UUID
	Email        string
	Code         string
	ExpiresAt    time.Time
	Used         bool
	UsedAt       *time.Time
	SessionToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the (record, email) pair a session token is bound to.
type Session struct {
	RecordID uuid.UUID `json:"estimationId"`
	Email    string    `json:"email"`
}

// SessionGrant is returned by a successful verification.
type SessionGrant struct {
	Token   string
	Session Session
}

type RequestCodeInput struct {
	EstimationID uuid.UUID
	Email        string
}

type VerifyCodeInput struct {
	EstimationID uuid.UUID
	Email        string
	Code         string
}
