package model

import (
	"time"

	"github.com/google/uuid"
)

// ConfigurationSingletonID is the primary key of the only configuration row.
const ConfigurationSingletonID = 1

// ConfigurationPV holds the operation catalog shared by every agency, as the
// JSON encoding of caisse.Catalog.
type ConfigurationPV struct {
	ID         int        `gorm:"primaryKey;autoIncrement:false"`
	Catalogue  string     `gorm:"type:text;not null"`
	ModifiePar *uuid.UUID `gorm:"type:uuid"`
	UpdatedAt  time.Time
}

func (ConfigurationPV) TableName() string { return "configuration_pv" }
