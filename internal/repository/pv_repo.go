package repository

import (
	"context"
	"time"

	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PVRepository is an append-only log of PV versions. There is no Update or
// Delete: a correction is a new version.
type PVRepository interface {
	Create(ctx context.Context, pv *model.PVCaisse) error
	// ListByUtilisateurDate returns every version of one agent's day.
	ListByUtilisateurDate(ctx context.Context, utilisateurID uuid.UUID, date time.Time) ([]model.PVCaisse, error)
	ListByAgenceDate(ctx context.Context, agenceID uuid.UUID, date time.Time) ([]model.PVCaisse, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.PVCaisse, error)
	// ListByUtilisateurPeriode and ListByPeriode take an inclusive [du, au] range.
	ListByUtilisateurPeriode(ctx context.Context, utilisateurID uuid.UUID, du, au time.Time) ([]model.PVCaisse, error)
	ListByPeriode(ctx context.Context, du, au time.Time) ([]model.PVCaisse, error)
	// ListDernierJourAvant returns every version of the agent's most recent day
	// strictly before date, or nothing.
	ListDernierJourAvant(ctx context.Context, utilisateurID uuid.UUID, date time.Time) ([]model.PVCaisse, error)
}

type pvRepo struct{ db *gorm.DB }

func NewPVRepository(db *gorm.DB) PVRepository { return &pvRepo{db: db} }

func (r *pvRepo) Create(ctx context.Context, pv *model.PVCaisse) error {
	return mapError(r.db.WithContext(ctx).Create(pv).Error)
}

func (r *pvRepo) ListByUtilisateurDate(ctx context.Context, utilisateurID uuid.UUID, date time.Time) ([]model.PVCaisse, error) {
	var list []model.PVCaisse
	err := r.db.WithContext(ctx).
		Where("utilisateur_id = ? AND date = ?", utilisateurID, date.Format(time.DateOnly)).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *pvRepo) ListByAgenceDate(ctx context.Context, agenceID uuid.UUID, date time.Time) ([]model.PVCaisse, error) {
	var list []model.PVCaisse
	err := r.db.WithContext(ctx).
		Where("agence_id = ? AND date = ?", agenceID, date.Format(time.DateOnly)).
		Find(&list).Error
	return list, err
}

func (r *pvRepo) ListByDate(ctx context.Context, date time.Time) ([]model.PVCaisse, error) {
	var list []model.PVCaisse
	err := r.db.WithContext(ctx).Where("date = ?", date.Format(time.DateOnly)).Find(&list).Error
	return list, err
}

func (r *pvRepo) ListByUtilisateurPeriode(ctx context.Context, utilisateurID uuid.UUID, du, au time.Time) ([]model.PVCaisse, error) {
	var list []model.PVCaisse
	err := r.db.WithContext(ctx).
		Where("utilisateur_id = ? AND date BETWEEN ? AND ?", utilisateurID, du.Format(time.DateOnly), au.Format(time.DateOnly)).
		Order("date DESC").
		Find(&list).Error
	return list, err
}

func (r *pvRepo) ListByPeriode(ctx context.Context, du, au time.Time) ([]model.PVCaisse, error) {
	var list []model.PVCaisse
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", du.Format(time.DateOnly), au.Format(time.DateOnly)).
		Order("date DESC").
		Find(&list).Error
	return list, err
}

func (r *pvRepo) ListDernierJourAvant(ctx context.Context, utilisateurID uuid.UUID, date time.Time) ([]model.PVCaisse, error) {
	var list []model.PVCaisse
	prev := r.db.Model(&model.PVCaisse{}).
		Select("MAX(date)").
		Where("utilisateur_id = ? AND date < ?", utilisateurID, date.Format(time.DateOnly))
	err := r.db.WithContext(ctx).
		Where("utilisateur_id = ? AND date = (?)", utilisateurID, prev).
		Find(&list).Error
	return list, err
}
