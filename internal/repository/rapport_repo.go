package repository

import (
	"context"
	"time"

	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RapportRepository interface {
	Create(ctx context.Context, r *model.RapportEnvoi) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RapportEnvoi, error)
	Update(ctx context.Context, r *model.RapportEnvoi) error
	// ListPendingRetries returns failed reports whose next attempt is due.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.RapportEnvoi, error)
}

type rapportRepo struct{ db *gorm.DB }

func NewRapportRepository(db *gorm.DB) RapportRepository { return &rapportRepo{db: db} }

func (r *rapportRepo) Create(ctx context.Context, e *model.RapportEnvoi) error {
	return mapError(r.db.WithContext(ctx).Create(e).Error)
}

func (r *rapportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RapportEnvoi, error) {
	var e model.RapportEnvoi
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (r *rapportRepo) Update(ctx context.Context, e *model.RapportEnvoi) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *rapportRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.RapportEnvoi, error) {
	var list []model.RapportEnvoi
	err := r.db.WithContext(ctx).
		Where("statut = 'echec' AND next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
