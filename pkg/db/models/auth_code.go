package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthCode is a one-time login code. Once consumed it carries the session token it minted.
type AuthCode struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EstimationID uuid.UUID  `gorm:"type:uuid;column:estimation_id;not null;index:idx_auth_codes_lookup"`
	Email        string     `gorm:"column:email;not null;index:idx_auth_codes_lookup"`
	Code         string     `gorm:"column:code;not null;index:idx_auth_codes_lookup"`
	ExpiresAt    time.Time  `gorm:"column:expires_at;not null;index"`
	Used         bool       `gorm:"column:used;not null;default:false"`
	UsedAt       *time.Time `gorm:"column:used_at"`
	SessionToken *string    `gorm:"column:session_token;uniqueIndex"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
