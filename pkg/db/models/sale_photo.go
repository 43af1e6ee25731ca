package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

// SalePhoto is one uploaded photo URL. Rows are only ever inserted; list order follows ID.
type SalePhoto struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	SaleRecordID uuid.UUID       `gorm:"type:uuid;column:sale_record_id;not null;index"`
	PhotoType    enums.PhotoType `gorm:"column:photo_type;not null"`
	URL          string          `gorm:"column:url;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
