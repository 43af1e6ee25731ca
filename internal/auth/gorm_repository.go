package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clodamigoles/dossiers.vevo/internal/repo"
	"github.com/clodamigoles/dossiers.vevo/pkg/db/models"
)

type gormRepository struct {
	repo.Base
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) Create(ctx context.Context, code *Code) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	row := toModel(code)
	if err := r.DB(ctx).Create(&row).Error; err != nil {
		return err
	}
	code.CreatedAt = row.CreatedAt
	code.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *gormRepository) InvalidateLive(ctx context.Context, estimationID uuid.UUID, email string, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Model(&models.AuthCode{}).
		Where("estimation_id = ? AND email = ? AND used = ? AND expires_at > ?", estimationID, email, false, now).
		Updates(map[string]any{"used": true, "updated_at": now})
	return result.RowsAffected, result.Error
}

func (r *gormRepository) FindLive(ctx context.Context, estimationID uuid.UUID, email, code string, now time.Time) (*Code, error) {
	var row models.AuthCode
	err := r.DB(ctx).
		Where("estimation_id = ? AND email = ? AND code = ? AND used = ? AND expires_at > ?", estimationID, email, code, false, now).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromModel(row), nil
}

func (r *gormRepository) Consume(ctx context.Context, id uuid.UUID, token string, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.AuthCode{}).
		Where("id = ? AND used = ? AND expires_at > ?", id, false, now).
		Updates(map[string]any{
			"used":          true,
			"used_at":       now,
			"session_token": token,
			"updated_at":    now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) FindBySessionToken(ctx context.Context, token string) (*Code, error) {
	var row models.AuthCode
	err := r.DB(ctx).
		Where("session_token = ? AND used = ?", token, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromModel(row), nil
}

func (r *gormRepository) DeleteExpiredUnused(ctx context.Context, now time.Time, limit int) (int64, error) {
	batch := r.DB(nil).Model(&models.AuthCode{}).
		Select("id").
		Where("used = ? AND expires_at <= ?", false, now).
		Limit(limit)
	result := r.DB(ctx).Where("id IN (?)", batch).Delete(&models.AuthCode{})
	return result.RowsAffected, result.Error
}

func toModel(c *Code) models.AuthCode {
	return models.AuthCode{
		ID:           c.ID,
		EstimationID: c.EstimationID,
		Email:        c.Email,
		Code:         c.Code,
		ExpiresAt:    c.ExpiresAt,
		Used:         c.Used,
		UsedAt:       c.UsedAt,
		SessionToken: c.SessionToken,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromModel(row models.AuthCode) *Code {
	return &Code{
		ID:           row.ID,
		EstimationID: row.EstimationID,
		Email:        row.Email,
		Code:         row.Code,
		ExpiresAt:    row.ExpiresAt,
		Used:         row.Used,
		UsedAt:       row.UsedAt,
		SessionToken: row.SessionToken,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
