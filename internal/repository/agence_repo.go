package repository

import (
	"context"

	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgenceRepository interface {
	Create(ctx context.Context, a *model.Agence) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Agence, error)
	List(ctx context.Context, inclureInactives bool) ([]model.Agence, error)
	Update(ctx context.Context, a *model.Agence) error
	Desactiver(ctx context.Context, id uuid.UUID) error
}

type agenceRepo struct{ db *gorm.DB }

func NewAgenceRepository(db *gorm.DB) AgenceRepository { return &agenceRepo{db: db} }

func (r *agenceRepo) Create(ctx context.Context, a *model.Agence) error {
	return mapError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *agenceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Agence, error) {
	var a model.Agence
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *agenceRepo) List(ctx context.Context, inclureInactives bool) ([]model.Agence, error) {
	var list []model.Agence
	q := r.db.WithContext(ctx).Order("nom asc")
	if !inclureInactives {
		q = q.Where("actif = true")
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *agenceRepo) Update(ctx context.Context, a *model.Agence) error {
	return mapError(r.db.WithContext(ctx).Save(a).Error)
}

func (r *agenceRepo) Desactiver(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Agence{}).Where("id = ?", id).Update("actif", false).Error
}
