package repository

import (
	"context"

	"pvcaisse/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfigurationRepository reads and writes the singleton PV configuration row.
type ConfigurationRepository interface {
	// Get returns ErrNotFound while nothing has been saved.
	Get(ctx context.Context) (*model.ConfigurationPV, error)
	Save(ctx context.Context, c *model.ConfigurationPV) error
}

type configurationRepo struct{ db *gorm.DB }

func NewConfigurationRepository(db *gorm.DB) ConfigurationRepository {
	return &configurationRepo{db: db}
}

func (r *configurationRepo) Get(ctx context.Context) (*model.ConfigurationPV, error) {
	var c model.ConfigurationPV
	err := r.db.WithContext(ctx).First(&c, model.ConfigurationSingletonID).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *configurationRepo) Save(ctx context.Context, c *model.ConfigurationPV) error {
	c.ID = model.ConfigurationSingletonID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"catalogue", "modifie_par", "updated_at"}),
	}).Create(c).Error
}
