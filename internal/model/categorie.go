package model

import (
	"time"

	"github.com/google/uuid"
)

// Categorie is a reusable transaction label offered when entering a
// versement or retrait.
// Type: "versement" | "retrait"
type Categorie struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nom         string    `gorm:"not null;uniqueIndex:idx_categorie_nom_type"`
	Type        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_categorie_nom_type"`
	Description *string
	Actif       bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Categorie) TableName() string { return "categories" }
