package repository

import (
	"context"

	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategorieRepository defines CRUD operations for Categorie.
type CategorieRepository interface {
	Creer(ctx context.Context, c *model.Categorie) error
	Lister(ctx context.Context, typ string) ([]model.Categorie, error)
	ObtenirParID(ctx context.Context, id uuid.UUID) (*model.Categorie, error)
	ObtenirParNom(ctx context.Context, nom, typ string) (*model.Categorie, error)
	Modifier(ctx context.Context, c *model.Categorie) error
	Desactiver(ctx context.Context, id uuid.UUID) error
}

type categorieRepository struct{ db *gorm.DB }

func NewCategorieRepository(db *gorm.DB) CategorieRepository {
	return &categorieRepository{db: db}
}

func (r *categorieRepository) Creer(ctx context.Context, c *model.Categorie) error {
	return mapError(r.db.WithContext(ctx).Create(c).Error)
}

// Lister returns every category, or only those of typ when it is not empty.
func (r *categorieRepository) Lister(ctx context.Context, typ string) ([]model.Categorie, error) {
	var list []model.Categorie
	q := r.db.WithContext(ctx).Order("nom asc")
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *categorieRepository) ObtenirParID(ctx context.Context, id uuid.UUID) (*model.Categorie, error) {
	var c model.Categorie
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *categorieRepository) ObtenirParNom(ctx context.Context, nom, typ string) (*model.Categorie, error) {
	var c model.Categorie
	err := r.db.WithContext(ctx).Where("lower(nom) = lower(?) AND type = ?", nom, typ).First(&c).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *categorieRepository) Modifier(ctx context.Context, c *model.Categorie) error {
	return mapError(r.db.WithContext(ctx).Save(c).Error)
}

func (r *categorieRepository) Desactiver(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Categorie{}).Where("id = ?", id).Update("actif", false).Error
}
