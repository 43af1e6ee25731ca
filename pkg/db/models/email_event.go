package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

// EmailEvent is an append-only audit entry for an informational email.
type EmailEvent struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	SaleRecordID uuid.UUID       `gorm:"type:uuid;column:sale_record_id;not null;index"`
	Type         enums.EmailType `gorm:"column:type;not null"`
	SentAt       time.Time       `gorm:"column:sent_at;not null"`
	Subject      string          `gorm:"column:subject;not null"`
	Success      bool            `gorm:"column:success;not null"`
	ErrorMessage string          `gorm:"column:error_message;not null;default:''"`
	MessageID    string          `gorm:"column:message_id;not null;default:''"`
}
